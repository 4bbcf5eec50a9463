package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/motivatem3/server/internal/errors"
	"github.com/motivatem3/server/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// writeError logs unexpected failures before mapping err to a response.
// Expected outcomes such as a wrong code are not logged here.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperrors.AsAppError(err); !ok || appErr.ServerSide() {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	httputil.WriteError(w, err)
}

type message struct {
	Message string `json:"message"`
}

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
