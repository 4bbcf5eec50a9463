package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/audit"
	apperrors "github.com/motivatem3/server/internal/errors"
	"github.com/motivatem3/server/internal/model"
)

type contextKey string

const AccountContextKey contextKey = "account"

func GetAccount(ctx context.Context) *model.Account {
	if account, ok := ctx.Value(AccountContextKey).(*model.Account); ok {
		return account
	}
	return nil
}

// WithAccount stores account in ctx the way SessionMiddleware does.
func WithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, AccountContextKey, account)
}

// Authenticator resolves a raw session cookie value to its account, returning
// nil for unknown or expired sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionToken string) (*model.Account, error)
}

type SessionMiddleware struct {
	auth Authenticator
}

func NewSessionMiddleware(auth Authenticator) *SessionMiddleware {
	return &SessionMiddleware{auth: auth}
}

// Handler rejects requests without a valid session for a verified account.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, apperrors.Unauthorized("Please log in."))
			return
		}

		account, err := m.auth.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: lookup failed")
			writeError(w, apperrors.Internal("Session validation failed"))
			return
		}

		if account == nil {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventAuthFailure})
			writeError(w, apperrors.Unauthorized("Please log in."))
			return
		}

		if !account.IsVerified {
			writeError(w, apperrors.NotVerified())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
	})
}

// RequireAdmin must run after SessionMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := GetAccount(r.Context())
		if account == nil {
			writeError(w, apperrors.Unauthorized("Please log in."))
			return
		}

		if !account.IsAdmin {
			audit.LogFromRequest(r, audit.Event{
				Type:      audit.EventAdminDenied,
				AccountID: account.ID,
			})
			writeError(w, apperrors.Forbidden("Admin access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
