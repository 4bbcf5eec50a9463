package middleware

import (
	"net/http"

	"github.com/motivatem3/server/internal/httputil"
)

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
