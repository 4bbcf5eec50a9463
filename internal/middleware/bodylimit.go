package middleware

import (
	"fmt"
	"net/http"

	"github.com/motivatem3/server/internal/config"
	apperrors "github.com/motivatem3/server/internal/errors"
)

// BodyLimitMiddleware rejects declared oversize bodies up front and caps
// streamed ones with http.MaxBytesReader.
type BodyLimitMiddleware struct {
	maxSize int64
}

func NewBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = config.MaxRequestBodySize
	}
	return &BodyLimitMiddleware{maxSize: maxSize}
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.ContentLength > m.maxSize {
			writeError(w, apperrors.InvalidInput("body", fmt.Sprintf("must be at most %d KB", m.maxSize>>10)))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, m.maxSize)
		next.ServeHTTP(w, r)
	})
}
