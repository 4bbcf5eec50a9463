package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/motivatem3/server/internal/middleware"
	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/service"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Signup(ctx context.Context, input service.SignupInput) (*service.SignupResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignupResult), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, sessionToken string) error {
	return m.Called(ctx, sessionToken).Error(0)
}

func (m *mockAuth) Pending(ctx context.Context, pendingToken string) (*model.PendingVerification, error) {
	args := m.Called(ctx, pendingToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PendingVerification), args.Error(1)
}

func (m *mockAuth) VerifyToken(ctx context.Context, token, pendingToken string) (*service.VerifyResult, error) {
	args := m.Called(ctx, token, pendingToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerifyResult), args.Error(1)
}

func (m *mockAuth) VerifyCode(ctx context.Context, pendingToken, code string) (*service.VerifyResult, error) {
	args := m.Called(ctx, pendingToken, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerifyResult), args.Error(1)
}

func (m *mockAuth) Resend(ctx context.Context, email, pendingToken string) (*service.ResendResult, error) {
	args := m.Called(ctx, email, pendingToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResendResult), args.Error(1)
}

type mockMotivation struct {
	mock.Mock
}

func (m *mockMotivation) Generate(ctx context.Context, accountID, feeling, goal string) (*service.GenerateResult, error) {
	args := m.Called(ctx, accountID, feeling, goal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateResult), args.Error(1)
}

func (m *mockMotivation) History(ctx context.Context, accountID string, limit, offset int) ([]service.MotivationEntry, int, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]service.MotivationEntry), args.Int(1), args.Error(2)
}

type mockChat struct {
	mock.Mock
}

func (m *mockChat) Send(ctx context.Context, accountID, message string) (string, error) {
	args := m.Called(ctx, accountID, message)
	return args.String(0), args.Error(1)
}

func (m *mockChat) History(ctx context.Context, accountID string) ([]model.ChatMessage, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *mockChat) Reset(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

type mockAdmin struct {
	mock.Mock
}

func (m *mockAdmin) ListUsers(ctx context.Context, limit, offset int) ([]model.Account, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Account), args.Int(1), args.Error(2)
}

func (m *mockAdmin) Stats(ctx context.Context) (*service.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Stats), args.Error(1)
}

// serve runs h against a JSON request with optional cookies and account.
func serve(h http.Handler, method, target, body string, account *model.Account, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if account != nil {
		req = req.WithContext(middleware.WithAccount(req.Context(), account))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
