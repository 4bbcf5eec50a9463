package audit

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/util"
)

type EventType string

const (
	EventSignup          EventType = "signup"
	EventVerifyLink      EventType = "verify_link"
	EventVerifyCode      EventType = "verify_code"
	EventVerifyFailure   EventType = "verify_failure"
	EventResend          EventType = "verification_resend"
	EventLoginSuccess    EventType = "login_success"
	EventLoginFailure    EventType = "login_failure"
	EventLoginUnverified EventType = "login_unverified"
	EventLogout          EventType = "logout"
	EventRateLimitExceed EventType = "rate_limit_exceeded"
	EventCSRFFailure     EventType = "csrf_failure"
	EventAuthFailure     EventType = "auth_failure"
	EventAdminDenied     EventType = "admin_denied"
	EventAdminPromote    EventType = "admin_promote"
	EventSafetyReframe   EventType = "safety_reframe"
)

// Denials and failed credential checks are warnings so they stand out from
// routine account activity.
var warnEvents = map[EventType]bool{
	EventVerifyFailure:   true,
	EventLoginFailure:    true,
	EventRateLimitExceed: true,
	EventCSRFFailure:     true,
	EventAuthFailure:     true,
	EventAdminDenied:     true,
}

// Event is one security-relevant action. Email is masked before it is
// written.
type Event struct {
	Type      EventType
	AccountID string
	Email     string
	IP        string
	UserAgent string
	Details   map[string]any
}

func Log(ctx context.Context, event Event) {
	var e *zerolog.Event
	if warnEvents[event.Type] {
		e = log.Warn()
	} else {
		e = log.Info()
	}

	e = e.Str("audit", "security").Str("event_type", string(event.Type))
	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		e = e.Str("request_id", reqID)
	}
	if event.AccountID != "" {
		e = e.Str("account_id", event.AccountID)
	}
	if event.Email != "" {
		e = e.Str("email", util.MaskEmail(event.Email))
	}
	if event.IP != "" {
		e = e.Str("ip", event.IP)
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", event.UserAgent)
	}
	if len(event.Details) > 0 {
		e = e.Fields(event.Details)
	}

	e.Msg("security audit event")
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = ClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
