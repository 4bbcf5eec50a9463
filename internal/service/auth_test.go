package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/motivatem3/server/internal/errors"
	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/repository"
	"github.com/motivatem3/server/internal/util"
	"github.com/motivatem3/server/internal/verification"
)

const authTestSecret = "auth-test-secret-0123456789abcdef"

var sixDigitCode = regexp.MustCompile(`<b>(\d{6})</b>`)
var verifyLink = regexp.MustCompile(`/auth/verify/([A-Za-z0-9_\-.]+)`)

type authFixture struct {
	accounts *mockAccountRepo
	sessions *mockSessionRepo
	tx       *inlineTx
	mailer   *fakeMailer
	pending  *fakePending
	limiter  *fakeLimiter
	issuer   *verification.Issuer
	svc      *AuthService
}

func newAuthFixture(t *testing.T, singleActive bool) *authFixture {
	t.Helper()
	f := &authFixture{
		accounts: new(mockAccountRepo),
		sessions: new(mockSessionRepo),
		tx:       &inlineTx{},
		mailer:   &fakeMailer{},
		pending:  newFakePending(),
		limiter:  &fakeLimiter{deny: map[string]bool{}},
		issuer:   verification.NewIssuer(verification.NewTokenSigner(authTestSecret, time.Hour), time.Hour),
	}
	f.svc = NewAuthService(f.accounts, f.sessions, f.tx, f.issuer, f.mailer, f.pending, f.limiter, AuthSettings{
		SessionSecret: authTestSecret,
		VerifyURL:     func(token string) string { return "https://motivatem3.test/auth/verify/" + token },
		CodeTTL:       time.Hour,
		SingleActive:  singleActive,
	})
	return f
}

func unverifiedAccount(t *testing.T, code string, expires time.Time, epoch int) *model.Account {
	t.Helper()
	hash, err := util.HashPassword("longenough")
	require.NoError(t, err)
	digest := verification.HashCode(code)
	return &model.Account{
		ID:                   "a1",
		FirstName:            "Ada",
		Email:                "ada@example.com",
		PasswordHash:         hash,
		VerificationCodeHash: &digest,
		CodeExpiresAt:        &expires,
		VerificationEpoch:    epoch,
	}
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()
	input := SignupInput{FirstName: " Ada ", Email: " Ada@Example.com ", Password: "longenough"}

	t.Run("creates unverified account and mails code and link", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.accounts.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, nil)

		var created model.CreateAccountParams
		f.accounts.On("Create", mock.Anything, mock.AnythingOfType("model.CreateAccountParams")).
			Run(func(args mock.Arguments) { created = args.Get(1).(model.CreateAccountParams) }).
			Return(&model.Account{ID: "a1", FirstName: "Ada", Email: "ada@example.com"}, nil)

		res, err := f.svc.Signup(ctx, input)
		require.NoError(t, err)
		assert.NotEmpty(t, res.PendingToken)

		assert.Equal(t, "ada@example.com", created.Email)
		assert.Equal(t, "Ada", created.FirstName)
		assert.Nil(t, created.LastName)
		assert.NotEqual(t, "longenough", created.PasswordHash)
		assert.True(t, util.CheckPasswordHash("longenough", created.PasswordHash))
		assert.Equal(t, 1, created.VerificationEpoch)
		assert.WithinDuration(t, time.Now().Add(time.Hour), created.CodeExpiresAt, 5*time.Second)

		require.Len(t, f.mailer.sent, 1)
		msg := f.mailer.sent[0]
		assert.Equal(t, "Confirm your MotivateM3 account", msg.Subject)

		code := sixDigitCode.FindStringSubmatch(msg.HTML)
		require.Len(t, code, 2)
		assert.Equal(t, verification.HashCode(code[1]), created.VerificationCodeHash)

		link := verifyLink.FindStringSubmatch(msg.Text)
		require.Len(t, link, 2)
		claims, err := f.issuer.ValidateToken(link[1])
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", claims.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.accounts.On("FindByEmail", mock.Anything, "ada@example.com").Return(&model.Account{ID: "a0"}, nil)

		_, err := f.svc.Signup(ctx, input)
		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
		f.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("losing the insert race is a duplicate", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.accounts.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, nil)
		f.accounts.On("Create", mock.Anything, mock.Anything).Return(nil, repository.ErrDuplicateEmail)

		_, err := f.svc.Signup(ctx, input)
		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("mail failure removes the account", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.mailer.err = errors.New("sendgrid 401")
		f.accounts.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, nil)
		f.accounts.On("Create", mock.Anything, mock.Anything).
			Return(&model.Account{ID: "a1", FirstName: "Ada", Email: "ada@example.com"}, nil)
		f.accounts.On("Delete", mock.Anything, "a1").Return(nil)

		_, err := f.svc.Signup(ctx, input)
		assert.Equal(t, apperrors.ErrCodeExternal, apperrors.GetCode(err))
		f.accounts.AssertCalled(t, "Delete", mock.Anything, "a1")
		assert.Empty(t, f.pending.entries)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newAuthFixture(t, false)
		_, err := f.svc.Signup(ctx, SignupInput{Email: "ada@example.com", Password: "x"})
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("verified account gets a session", func(t *testing.T) {
		f := newAuthFixture(t, false)
		account := unverifiedAccount(t, "123456", time.Now().Add(time.Hour), 1)
		account.IsVerified = true
		f.accounts.On("FindByEmail", mock.Anything, "ada@example.com").Return(account, nil)

		var params model.CreateSessionParams
		f.sessions.On("Create", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { params = args.Get(1).(model.CreateSessionParams) }).
			Return(&model.Session{ID: "s1"}, nil)

		res, err := f.svc.Login(ctx, "ADA@example.com", "longenough")
		require.NoError(t, err)
		assert.False(t, res.PendingVerification)
		assert.Len(t, res.SessionToken, 64)
		assert.Equal(t, util.HmacSHA256(authTestSecret, res.SessionToken), params.TokenHash)
		assert.Equal(t, "a1", params.AccountID)
	})

	t.Run("unverified account is routed to verification", func(t *testing.T) {
		f := newAuthFixture(t, false)
		account := unverifiedAccount(t, "123456", time.Now().Add(time.Hour), 1)
		f.accounts.On("FindByEmail", mock.Anything, "ada@example.com").Return(account, nil)

		res, err := f.svc.Login(ctx, "ada@example.com", "longenough")
		require.NoError(t, err)
		assert.True(t, res.PendingVerification)
		assert.Empty(t, res.SessionToken)
		assert.Contains(t, f.pending.entries, res.PendingToken)
		f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.accounts.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

		_, err := f.svc.Login(ctx, "ghost@example.com", "longenough")
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
		assert.Equal(t, "No account found with that email.", appErr.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t, false)
		account := unverifiedAccount(t, "123456", time.Now().Add(time.Hour), 1)
		f.accounts.On("FindByEmail", mock.Anything, "ada@example.com").Return(account, nil)

		_, err := f.svc.Login(ctx, "ada@example.com", "wrong-password")
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newAuthFixture(t, false)
		_, err := f.svc.Login(ctx, "", "")
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})
}

func TestAuthService_VerifyCode(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, account *model.Account) (*authFixture, string) {
		f := newAuthFixture(t, false)
		token, err := f.pending.Create(ctx, account)
		require.NoError(t, err)
		f.accounts.On("FindByIDForUpdate", mock.Anything, "a1").Return(account, nil)
		return f, token
	}

	t.Run("matching code verifies and clears pending", func(t *testing.T) {
		account := unverifiedAccount(t, "000042", time.Now().Add(time.Hour), 1)
		f, token := setup(t, account)
		f.accounts.On("MarkVerified", mock.Anything, "a1").Return(true, nil)

		res, err := f.svc.VerifyCode(ctx, token, " 000042 ")
		require.NoError(t, err)
		assert.False(t, res.AlreadyVerified)
		assert.True(t, res.Account.IsVerified)
		assert.Nil(t, res.Account.VerificationCodeHash)
		assert.Nil(t, res.Account.CodeExpiresAt)
		assert.Empty(t, f.pending.entries)
		assert.Equal(t, 1, f.tx.calls)
		assert.Equal(t, []string{"verify:a1"}, f.limiter.keys)
	})

	t.Run("wrong code", func(t *testing.T) {
		account := unverifiedAccount(t, "000042", time.Now().Add(time.Hour), 1)
		f, token := setup(t, account)

		_, err := f.svc.VerifyCode(ctx, token, "000043")
		assert.Equal(t, apperrors.ErrCodeInvalidCode, apperrors.GetCode(err))
		f.accounts.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
		assert.Contains(t, f.pending.entries, token)
	})

	t.Run("expired code", func(t *testing.T) {
		account := unverifiedAccount(t, "000042", time.Now().Add(-time.Second), 1)
		f, token := setup(t, account)

		_, err := f.svc.VerifyCode(ctx, token, "000042")
		assert.Equal(t, apperrors.ErrCodeCodeExpired, apperrors.GetCode(err))
	})

	t.Run("no code on record", func(t *testing.T) {
		account := unverifiedAccount(t, "000042", time.Now().Add(time.Hour), 1)
		account.VerificationCodeHash = nil
		account.CodeExpiresAt = nil
		f, token := setup(t, account)

		_, err := f.svc.VerifyCode(ctx, token, "000042")
		assert.Equal(t, apperrors.ErrCodeCodeExpired, apperrors.GetCode(err))
	})

	t.Run("already verified performs no write", func(t *testing.T) {
		account := unverifiedAccount(t, "000042", time.Now().Add(time.Hour), 1)
		account.IsVerified = true
		f, token := setup(t, account)

		res, err := f.svc.VerifyCode(ctx, token, "000042")
		require.NoError(t, err)
		assert.True(t, res.AlreadyVerified)
		f.accounts.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
	})

	t.Run("lost race reports already verified", func(t *testing.T) {
		account := unverifiedAccount(t, "000042", time.Now().Add(time.Hour), 1)
		f, token := setup(t, account)
		f.accounts.On("MarkVerified", mock.Anything, "a1").Return(false, nil)

		res, err := f.svc.VerifyCode(ctx, token, "000042")
		require.NoError(t, err)
		assert.True(t, res.AlreadyVerified)
	})

	t.Run("no pending session", func(t *testing.T) {
		f := newAuthFixture(t, false)
		_, err := f.svc.VerifyCode(ctx, "missing", "000042")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		account := unverifiedAccount(t, "000042", time.Now().Add(time.Hour), 1)
		f, token := setup(t, account)
		f.limiter.deny["verify:a1"] = true

		_, err := f.svc.VerifyCode(ctx, token, "000042")
		assert.Equal(t, apperrors.ErrCodeRateLimitExceeded, apperrors.GetCode(err))
		assert.Equal(t, 0, f.tx.calls)
	})
}

func TestAuthService_VerifyToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid link verifies", func(t *testing.T) {
		f := newAuthFixture(t, false)
		issued, err := f.issuer.Issue("ada@example.com", 1)
		require.NoError(t, err)

		account := unverifiedAccount(t, issued.Code, issued.ExpiresAt, 1)
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ada@example.com").Return(account, nil)
		f.accounts.On("MarkVerified", mock.Anything, "a1").Return(true, nil)

		res, err := f.svc.VerifyToken(ctx, issued.Token, "")
		require.NoError(t, err)
		assert.True(t, res.Account.IsVerified)
	})

	t.Run("expired link", func(t *testing.T) {
		f := newAuthFixture(t, false)
		stale := verification.NewIssuer(verification.NewTokenSigner(authTestSecret, -time.Minute), time.Hour)
		issued, err := stale.Issue("ada@example.com", 1)
		require.NoError(t, err)

		_, err = f.svc.VerifyToken(ctx, issued.Token, "")
		assert.Equal(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
	})

	t.Run("forged link", func(t *testing.T) {
		f := newAuthFixture(t, false)
		other := verification.NewIssuer(verification.NewTokenSigner("some-other-secret-0123456789abcdef", time.Hour), time.Hour)
		issued, err := other.Issue("ada@example.com", 1)
		require.NoError(t, err)

		_, err = f.svc.VerifyToken(ctx, issued.Token, "")
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, appErr.Code)
		assert.Equal(t, "Confirmation link is either invalid or expired.", appErr.Message)
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newAuthFixture(t, false)
		issued, err := f.issuer.Issue("gone@example.com", 1)
		require.NoError(t, err)
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "gone@example.com").Return(nil, nil)

		_, err = f.svc.VerifyToken(ctx, issued.Token, "")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("superseded link still works by default", func(t *testing.T) {
		f := newAuthFixture(t, false)
		issued, err := f.issuer.Issue("ada@example.com", 1)
		require.NoError(t, err)

		account := unverifiedAccount(t, "999999", time.Now().Add(time.Hour), 2)
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ada@example.com").Return(account, nil)
		f.accounts.On("MarkVerified", mock.Anything, "a1").Return(true, nil)

		_, err = f.svc.VerifyToken(ctx, issued.Token, "")
		assert.NoError(t, err)
	})

	t.Run("superseded link rejected in single active mode", func(t *testing.T) {
		f := newAuthFixture(t, true)
		issued, err := f.issuer.Issue("ada@example.com", 1)
		require.NoError(t, err)

		account := unverifiedAccount(t, "999999", time.Now().Add(time.Hour), 2)
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ada@example.com").Return(account, nil)

		_, err = f.svc.VerifyToken(ctx, issued.Token, "")
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
		f.accounts.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
	})

	t.Run("clears pending session", func(t *testing.T) {
		f := newAuthFixture(t, false)
		issued, err := f.issuer.Issue("ada@example.com", 1)
		require.NoError(t, err)

		account := unverifiedAccount(t, issued.Code, issued.ExpiresAt, 1)
		pendingToken, err := f.pending.Create(ctx, account)
		require.NoError(t, err)

		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ada@example.com").Return(account, nil)
		f.accounts.On("MarkVerified", mock.Anything, "a1").Return(true, nil)

		_, err = f.svc.VerifyToken(ctx, issued.Token, pendingToken)
		require.NoError(t, err)
		assert.NotContains(t, f.pending.entries, pendingToken)
	})
}

func TestAuthService_Resend(t *testing.T) {
	ctx := context.Background()

	t.Run("issues new code with bumped epoch", func(t *testing.T) {
		f := newAuthFixture(t, false)
		account := unverifiedAccount(t, "111111", time.Now().Add(time.Minute), 1)
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ada@example.com").Return(account, nil)

		var params model.SetVerificationCodeParams
		f.accounts.On("SetVerificationCode", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { params = args.Get(1).(model.SetVerificationCodeParams) }).
			Return(nil)

		res, err := f.svc.Resend(ctx, "ada@example.com", "")
		require.NoError(t, err)
		assert.False(t, res.AlreadyVerified)
		assert.NotEmpty(t, res.PendingToken)

		assert.Equal(t, "a1", params.AccountID)
		assert.Equal(t, 2, params.VerificationEpoch)
		assert.NotEqual(t, verification.HashCode("111111"), params.VerificationCodeHash)

		require.Len(t, f.mailer.sent, 1)
		assert.Equal(t, "Resend Verification - MotivateM3", f.mailer.sent[0].Subject)
		code := sixDigitCode.FindStringSubmatch(f.mailer.sent[0].HTML)
		require.Len(t, code, 2)
		assert.Equal(t, verification.HashCode(code[1]), params.VerificationCodeHash)
		assert.Equal(t, 1, f.tx.calls)
	})

	t.Run("epoch is read under the row lock", func(t *testing.T) {
		f := newAuthFixture(t, true)
		account := unverifiedAccount(t, "111111", time.Now().Add(time.Minute), 4)
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ada@example.com").Return(account, nil)
		f.accounts.On("SetVerificationCode", mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.Resend(ctx, "ada@example.com", "")
		require.NoError(t, err)

		f.accounts.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
		link := verifyLink.FindStringSubmatch(f.mailer.sent[0].HTML)
		require.Len(t, link, 2)
		claims, err := f.issuer.ValidateToken(link[1])
		require.NoError(t, err)
		assert.Equal(t, 5, claims.Epoch)
	})

	t.Run("another account's pending session is left alone", func(t *testing.T) {
		f := newAuthFixture(t, false)
		own := unverifiedAccount(t, "111111", time.Now().Add(time.Minute), 1)
		pendingToken, err := f.pending.Create(ctx, own)
		require.NoError(t, err)

		other := unverifiedAccount(t, "222222", time.Now().Add(time.Minute), 1)
		other.ID = "a2"
		other.Email = "grace@example.com"
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "grace@example.com").Return(other, nil)
		f.accounts.On("SetVerificationCode", mock.Anything, mock.Anything).Return(nil)

		res, err := f.svc.Resend(ctx, "grace@example.com", pendingToken)
		require.NoError(t, err)
		assert.Equal(t, "grace@example.com", res.Email)
		assert.Empty(t, res.PendingToken)
		require.Contains(t, f.pending.entries, pendingToken)
		assert.Equal(t, "a1", f.pending.entries[pendingToken].AccountID)
		assert.Len(t, f.pending.entries, 1)
	})

	t.Run("email from pending session", func(t *testing.T) {
		f := newAuthFixture(t, false)
		account := unverifiedAccount(t, "111111", time.Now().Add(time.Minute), 1)
		pendingToken, err := f.pending.Create(ctx, account)
		require.NoError(t, err)

		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ada@example.com").Return(account, nil)
		f.accounts.On("SetVerificationCode", mock.Anything, mock.Anything).Return(nil)

		res, err := f.svc.Resend(ctx, "", pendingToken)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", res.Email)
		assert.NotContains(t, f.pending.entries, pendingToken)
		assert.Contains(t, f.pending.entries, res.PendingToken)
	})

	t.Run("already verified", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ada@example.com").
			Return(&model.Account{ID: "a1", Email: "ada@example.com", IsVerified: true}, nil)

		res, err := f.svc.Resend(ctx, "ada@example.com", "")
		require.NoError(t, err)
		assert.True(t, res.AlreadyVerified)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ghost@example.com").Return(nil, nil)

		_, err := f.svc.Resend(ctx, "ghost@example.com", "")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.limiter.deny["resend:ada@example.com"] = true

		_, err := f.svc.Resend(ctx, "ada@example.com", "")
		assert.Equal(t, apperrors.ErrCodeRateLimitExceeded, apperrors.GetCode(err))
		f.accounts.AssertNotCalled(t, "FindByEmailForUpdate", mock.Anything, mock.Anything)
		assert.Zero(t, f.tx.calls)
	})

	t.Run("mail failure", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.mailer.err = errors.New("smtp down")
		account := unverifiedAccount(t, "111111", time.Now().Add(time.Minute), 1)
		f.accounts.On("FindByEmailForUpdate", mock.Anything, "ada@example.com").Return(account, nil)
		f.accounts.On("SetVerificationCode", mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.Resend(ctx, "ada@example.com", "")
		assert.Equal(t, apperrors.ErrCodeExternal, apperrors.GetCode(err))
	})

	t.Run("no email and no pending session", func(t *testing.T) {
		f := newAuthFixture(t, false)
		_, err := f.svc.Resend(ctx, "", "")
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})
}

func TestAuthService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticate resolves the account", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.sessions.On("FindByTokenHash", mock.Anything, util.HmacSHA256(authTestSecret, "tok")).
			Return(&model.Session{AccountID: "a1"}, nil)
		f.accounts.On("FindByID", mock.Anything, "a1").Return(&model.Account{ID: "a1"}, nil)

		account, err := f.svc.Authenticate(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, "a1", account.ID)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.sessions.On("FindByTokenHash", mock.Anything, mock.Anything).Return(nil, nil)

		account, err := f.svc.Authenticate(ctx, "tok")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("logout deletes by hash", func(t *testing.T) {
		f := newAuthFixture(t, false)
		f.sessions.On("DeleteByTokenHash", mock.Anything, util.HmacSHA256(authTestSecret, "tok")).Return(nil)

		require.NoError(t, f.svc.Logout(ctx, "tok"))
		f.sessions.AssertExpectations(t)
	})

	t.Run("pending lookup", func(t *testing.T) {
		f := newAuthFixture(t, false)
		token, err := f.pending.Create(ctx, &model.Account{ID: "a1", Email: "ada@example.com"})
		require.NoError(t, err)

		p, err := f.svc.Pending(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", p.Email)

		_, err = f.svc.Pending(ctx, "nope")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}
