package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/motivatem3/server/internal/audit"
	"github.com/motivatem3/server/internal/config"
	apperrors "github.com/motivatem3/server/internal/errors"
	"github.com/motivatem3/server/internal/httputil"
	"github.com/motivatem3/server/internal/middleware"
	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/service"
	"github.com/motivatem3/server/internal/util"
)

const (
	msgSignupSent      = "Signup successful. Check your email for the verification link and code."
	msgVerifyFirst     = "Please verify your email before logging in. Check your inbox or resend the code."
	msgVerified        = "Your account has been verified. You can now log in."
	msgAlreadyVerified = "Account already verified. Please log in."
	msgResent          = "A new verification email has been sent."
)

type AuthAPI interface {
	Signup(ctx context.Context, input service.SignupInput) (*service.SignupResult, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionToken string) error
	Pending(ctx context.Context, pendingToken string) (*model.PendingVerification, error)
	VerifyToken(ctx context.Context, token, pendingToken string) (*service.VerifyResult, error)
	VerifyCode(ctx context.Context, pendingToken, code string) (*service.VerifyResult, error)
	Resend(ctx context.Context, email, pendingToken string) (*service.ResendResult, error)
}

// AuthRoutes holds the middleware the auth routes are mounted with.
type AuthRoutes struct {
	RequireSession func(http.Handler) http.Handler
	SignupLimit    func(http.Handler) http.Handler
	LoginLimit     func(http.Handler) http.Handler
}

type AuthHandler struct {
	auth         AuthAPI
	routes       AuthRoutes
	pendingTTL   time.Duration
	isProduction bool
}

func NewAuthHandler(auth AuthAPI, routes AuthRoutes, pendingTTL time.Duration, isProduction bool) *AuthHandler {
	routes.RequireSession = orPassthrough(routes.RequireSession)
	routes.SignupLimit = orPassthrough(routes.SignupLimit)
	routes.LoginLimit = orPassthrough(routes.LoginLimit)
	return &AuthHandler{
		auth:         auth,
		routes:       routes,
		pendingTTL:   pendingTTL,
		isProduction: isProduction,
	}
}

// Routes is mounted under /api/auth.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.routes.SignupLimit).Post("/signup", h.Signup)
	r.With(h.routes.LoginLimit).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/verify-code", h.VerifyCode)
	r.Post("/resend-verification", h.Resend)
	r.Get("/pending", h.Pending)
	r.With(h.routes.RequireSession).Get("/me", h.Me)

	return r
}

type signupRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httputil.DecodeValid(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.auth.Signup(r.Context(), service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventSignup,
		AccountID: result.Account.ID,
		Email:     result.Account.Email,
	})

	h.setPending(w, result.PendingToken)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":             msgSignupSent,
		"email":               result.Account.Email,
		"pendingVerification": true,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeValid(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Email:   util.NormalizeEmail(req.Email),
			Details: map[string]interface{}{"code": string(apperrors.GetCode(err))},
		})
		writeError(w, r, err)
		return
	}

	if result.PendingVerification {
		audit.LogFromRequest(r, audit.Event{
			Type:      audit.EventLoginUnverified,
			AccountID: result.Account.ID,
		})
		h.setPending(w, result.PendingToken)
		writeJSON(w, http.StatusOK, map[string]any{
			"pendingVerification": true,
			"email":               result.Account.Email,
			"message":             msgVerifyFirst,
		})
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventLoginSuccess,
		AccountID: result.Account.ID,
	})
	middleware.SetCookie(w, middleware.SessionCookie, result.SessionToken,
		time.Until(result.SessionExpiresAt), h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"account": result.Account,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.CookieValue(r, middleware.SessionCookie)); err != nil {
		writeError(w, r, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	middleware.ClearCookie(w, middleware.SessionCookie)
	middleware.ClearCookie(w, middleware.PendingCookie)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"account": middleware.GetAccount(r.Context()),
	})
}

func (h *AuthHandler) Pending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.auth.Pending(r.Context(), middleware.CookieValue(r, middleware.PendingCookie))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"email":     pending.Email,
		"expiresAt": pending.ExpiresAt,
	})
}

// VerifyLink handles the emailed link, GET /auth/verify/{token}.
func (h *AuthHandler) VerifyLink(w http.ResponseWriter, r *http.Request) {
	result, err := h.auth.VerifyToken(r.Context(), chi.URLParam(r, "token"),
		middleware.CookieValue(r, middleware.PendingCookie))
	if err != nil {
		h.auditVerifyFailure(r, "link", err)
		writeError(w, r, err)
		return
	}

	h.writeVerified(w, r, audit.EventVerifyLink, result)
}

type verifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := httputil.DecodeValid(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.auth.VerifyCode(r.Context(), middleware.CookieValue(r, middleware.PendingCookie), req.Code)
	if err != nil {
		h.auditVerifyFailure(r, "code", err)
		writeError(w, r, err)
		return
	}

	h.writeVerified(w, r, audit.EventVerifyCode, result)
}

func (h *AuthHandler) writeVerified(w http.ResponseWriter, r *http.Request, event audit.EventType, result *service.VerifyResult) {
	middleware.ClearCookie(w, middleware.PendingCookie)

	msg := msgVerified
	if result.AlreadyVerified {
		msg = msgAlreadyVerified
	} else {
		audit.LogFromRequest(r, audit.Event{Type: event, AccountID: result.Account.ID})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"verified":        true,
		"alreadyVerified": result.AlreadyVerified,
		"message":         msg,
	})
}

func (h *AuthHandler) auditVerifyFailure(r *http.Request, method string, err error) {
	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventVerifyFailure,
		Details: map[string]interface{}{
			"method": method,
			"code":   string(apperrors.GetCode(err)),
		},
	})
}

type resendRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := httputil.DecodeValid(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.auth.Resend(r.Context(), req.Email, middleware.CookieValue(r, middleware.PendingCookie))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if result.AlreadyVerified {
		middleware.ClearCookie(w, middleware.PendingCookie)
		writeJSON(w, http.StatusOK, map[string]any{
			"alreadyVerified": true,
			"message":         msgAlreadyVerified,
		})
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:  audit.EventResend,
		Email: result.Email,
	})
	if result.PendingToken != "" {
		h.setPending(w, result.PendingToken)
	}
	writeJSON(w, http.StatusOK, message{Message: msgResent})
}

func (h *AuthHandler) setPending(w http.ResponseWriter, token string) {
	ttl := h.pendingTTL
	if ttl <= 0 {
		ttl = config.SessionTTL
	}
	middleware.SetCookie(w, middleware.PendingCookie, token, ttl, h.isProduction)
}
