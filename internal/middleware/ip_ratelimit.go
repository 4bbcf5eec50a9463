package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/motivatem3/server/internal/audit"
	apperrors "github.com/motivatem3/server/internal/errors"
	"github.com/motivatem3/server/internal/service"
)

// IPRateLimitMiddleware limits an endpoint per client address with the
// shared Redis sliding window. prefix separates endpoints.
type IPRateLimitMiddleware struct {
	limiter service.RateLimitChecker
	limit   int
	window  time.Duration
	prefix  string
}

func NewIPRateLimitMiddleware(limiter service.RateLimitChecker, limit int, window time.Duration, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		prefix:  prefix,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := audit.ClientIP(r)

		key := fmt.Sprintf("ip:%s:%s", m.prefix, ip)
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		if !allowed {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"endpoint": m.prefix},
			})
			w.Header().Set("Retry-After", strconv.Itoa(service.RetryAfter(resetAt)))
			writeError(w, apperrors.New(apperrors.ErrCodeRateLimitExceeded, "Too many requests. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}
