package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/config"
	"github.com/motivatem3/server/internal/database"
	apperrors "github.com/motivatem3/server/internal/errors"
	"github.com/motivatem3/server/internal/mail"
	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/repository"
	"github.com/motivatem3/server/internal/util"
	"github.com/motivatem3/server/internal/verification"
)

const (
	msgAccountExists   = "An account with that email already exists."
	msgNoAccount       = "No account found with that email."
	msgBadPassword     = "Incorrect password. Please try again."
	msgBadLink         = "Confirmation link is either invalid or expired."
	msgNoPending       = "No pending verification found."
	msgMailUnavailable = "Signup failed: could not send verification email."
)

// Transactor runs fn inside a database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type AuthSettings struct {
	SessionSecret string
	VerifyURL     func(token string) string
	CodeTTL       time.Duration
	SessionTTL    time.Duration
	// SingleActive makes a resend invalidate previously mailed links.
	SingleActive bool
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type SignupResult struct {
	Account      *model.Account
	PendingToken string
}

// LoginResult carries a session token for verified accounts, or a pending
// token when the account still needs verification.
type LoginResult struct {
	Account             *model.Account
	SessionToken        string
	SessionExpiresAt    time.Time
	PendingVerification bool
	PendingToken        string
}

type VerifyResult struct {
	Account         *model.Account
	AlreadyVerified bool
}

type ResendResult struct {
	Email           string
	PendingToken    string
	AlreadyVerified bool
}

type AuthService struct {
	accountRepo repository.AccountRepository
	sessionRepo repository.SessionRepository
	tx          Transactor
	issuer      *verification.Issuer
	mailer      mail.Mailer
	pending     PendingSessions
	limiter     RateLimitChecker
	settings    AuthSettings
	now         func() time.Time
}

func NewAuthService(
	accountRepo repository.AccountRepository,
	sessionRepo repository.SessionRepository,
	tx Transactor,
	issuer *verification.Issuer,
	mailer mail.Mailer,
	pending PendingSessions,
	limiter RateLimitChecker,
	settings AuthSettings,
) *AuthService {
	if settings.SessionTTL <= 0 {
		settings.SessionTTL = config.SessionTTL
	}
	return &AuthService{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		tx:          tx,
		issuer:      issuer,
		mailer:      mailer,
		pending:     pending,
		limiter:     limiter,
		settings:    settings,
		now:         time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	email := util.NormalizeEmail(input.Email)
	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" || email == "" || input.Password == "" {
		return nil, apperrors.ValidationError("Please fill in all required fields.")
	}

	existing, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("find account: %w", err))
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.ErrCodeAlreadyExists, msgAccountExists)
	}

	passwordHash, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	issued, err := s.issuer.Issue(email, 1)
	if err != nil {
		return nil, fmt.Errorf("issue verification: %w", err)
	}

	var lastName *string
	if ln := strings.TrimSpace(input.LastName); ln != "" {
		lastName = &ln
	}

	account, err := s.accountRepo.Create(ctx, model.CreateAccountParams{
		ID:                   uuid.NewString(),
		FirstName:            firstName,
		LastName:             lastName,
		Email:                email,
		PasswordHash:         passwordHash,
		VerificationCodeHash: issued.Digest,
		CodeExpiresAt:        issued.ExpiresAt,
		VerificationEpoch:    issued.Epoch,
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, apperrors.New(apperrors.ErrCodeAlreadyExists, msgAccountExists)
	}
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("create account: %w", err))
	}

	msg, err := mail.SignupMessage(email, s.mailData(account, issued))
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		log.Error().Err(err).Str("accountId", account.ID).Msg("verification email failed, removing account")
		if delErr := s.accountRepo.Delete(ctx, account.ID); delErr != nil {
			log.Error().Err(delErr).Str("accountId", account.ID).Msg("failed to remove account after email failure")
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeExternal, msgMailUnavailable, err)
	}

	pendingToken, err := s.pending.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("create pending verification: %w", err)
	}

	log.Info().
		Str("accountId", account.ID).
		Str("email", util.MaskEmail(email)).
		Msg("account created, verification sent")

	return &SignupResult{Account: account, PendingToken: pendingToken}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = util.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.New(apperrors.ErrCodeMissingRequired, "Please enter both email and password.")
	}

	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, msgNoAccount)
	}

	if !util.CheckPasswordHash(password, account.PasswordHash) {
		return nil, apperrors.Unauthorized(msgBadPassword)
	}

	if !account.IsVerified {
		pendingToken, err := s.pending.Create(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("create pending verification: %w", err)
		}
		return &LoginResult{
			Account:             account,
			PendingVerification: true,
			PendingToken:        pendingToken,
		}, nil
	}

	token, expiresAt, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Account:          account,
		SessionToken:     token,
		SessionExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) createSession(ctx context.Context, accountID string) (string, time.Time, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token: %w", err)
	}

	expiresAt := s.now().Add(s.settings.SessionTTL)
	_, err = s.sessionRepo.Create(ctx, model.CreateSessionParams{
		ID:        uuid.NewString(),
		TokenHash: s.hashSessionToken(token),
		AccountID: accountID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", time.Time{}, apperrors.Database(fmt.Errorf("create session: %w", err))
	}
	return token, expiresAt, nil
}

func (s *AuthService) hashSessionToken(token string) string {
	return util.HmacSHA256(s.settings.SessionSecret, token)
}

func (s *AuthService) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByTokenHash(ctx, s.hashSessionToken(sessionToken)); err != nil {
		return apperrors.Database(fmt.Errorf("delete session: %w", err))
	}
	return nil
}

// Authenticate resolves a session cookie to its account. Unknown or expired
// sessions yield nil without error.
func (s *AuthService) Authenticate(ctx context.Context, sessionToken string) (*model.Account, error) {
	if sessionToken == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByTokenHash(ctx, s.hashSessionToken(sessionToken))
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	account, err := s.accountRepo.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (s *AuthService) Pending(ctx context.Context, pendingToken string) (*model.PendingVerification, error) {
	pending, err := s.pending.Get(ctx, pendingToken)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, msgNoPending)
	}
	return pending, nil
}

// VerifyToken confirms an account from a mailed link. pendingToken, when
// present, is cleared on success.
func (s *AuthService) VerifyToken(ctx context.Context, token, pendingToken string) (*VerifyResult, error) {
	claims, err := s.issuer.ValidateToken(token)
	if errors.Is(err, verification.ErrExpired) {
		return nil, apperrors.TokenExpired(msgBadLink)
	}
	if err != nil {
		return nil, apperrors.InvalidToken(msgBadLink).WithCause(err)
	}

	var result VerifyResult
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		accounts := s.accountRepo.WithTx(tx)

		account, err := accounts.FindByEmailForUpdate(ctx, claims.Email)
		if err != nil {
			return apperrors.Database(fmt.Errorf("find account: %w", err))
		}
		if account == nil {
			return apperrors.NotFound("Account")
		}
		result.Account = account

		if account.IsVerified {
			result.AlreadyVerified = true
			return nil
		}

		if s.settings.SingleActive && claims.Epoch != account.VerificationEpoch {
			return apperrors.InvalidToken(msgBadLink)
		}

		return s.markVerified(ctx, accounts, &result)
	})
	if err != nil {
		return nil, err
	}

	s.clearPending(ctx, pendingToken)
	return &result, nil
}

// VerifyCode confirms the account behind the pending session with a
// six-digit code.
func (s *AuthService) VerifyCode(ctx context.Context, pendingToken, code string) (*VerifyResult, error) {
	pending, err := s.pending.Get(ctx, pendingToken)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, msgNoPending)
	}

	if allowed, _ := s.limiter.CheckLimit(ctx, "verify:"+pending.AccountID, config.VerifyCodeAttempts, config.VerifyCodeWindow); !allowed {
		return nil, apperrors.New(apperrors.ErrCodeRateLimitExceeded, "Too many attempts. Please wait and try again.")
	}

	code = strings.TrimSpace(code)

	var result VerifyResult
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		accounts := s.accountRepo.WithTx(tx)

		account, err := accounts.FindByIDForUpdate(ctx, pending.AccountID)
		if err != nil {
			return apperrors.Database(fmt.Errorf("find account: %w", err))
		}
		if account == nil {
			return apperrors.NotFound("Account")
		}
		result.Account = account

		if account.IsVerified {
			result.AlreadyVerified = true
			return nil
		}

		if account.CodeExpired(s.now()) {
			return apperrors.CodeExpired()
		}
		if !s.issuer.ValidateCode(account, code) {
			return apperrors.InvalidCode()
		}

		return s.markVerified(ctx, accounts, &result)
	})
	if err != nil {
		return nil, err
	}

	s.clearPending(ctx, pendingToken)
	return &result, nil
}

func (s *AuthService) markVerified(ctx context.Context, accounts repository.AccountRepository, result *VerifyResult) error {
	updated, err := accounts.MarkVerified(ctx, result.Account.ID)
	if err != nil {
		return apperrors.Database(fmt.Errorf("mark verified: %w", err))
	}
	if !updated {
		result.AlreadyVerified = true
		return nil
	}

	now := s.now()
	result.Account.IsVerified = true
	result.Account.VerificationCodeHash = nil
	result.Account.CodeExpiresAt = nil
	result.Account.VerifiedAt = &now

	log.Info().Str("accountId", result.Account.ID).Msg("account verified")
	return nil
}

func (s *AuthService) clearPending(ctx context.Context, pendingToken string) {
	if err := s.pending.Delete(ctx, pendingToken); err != nil {
		log.Warn().Err(err).Msg("failed to clear pending verification")
	}
}

// Resend issues a new code and link. The address comes from email or, when
// empty, from the pending session. The epoch bump happens under the account
// row lock so concurrent resends each get their own epoch.
func (s *AuthService) Resend(ctx context.Context, email, pendingToken string) (*ResendResult, error) {
	pending, err := s.pending.Get(ctx, pendingToken)
	if err != nil {
		if email == "" {
			return nil, err
		}
		log.Warn().Err(err).Msg("pending verification lookup failed, resending by email")
		pending = nil
	}

	email = util.NormalizeEmail(email)
	if email == "" {
		if pending == nil {
			return nil, apperrors.MissingRequired("Email")
		}
		email = pending.Email
	}

	if allowed, _ := s.limiter.CheckLimit(ctx, "resend:"+email, config.ResendLimit, config.ResendWindow); !allowed {
		return nil, apperrors.New(apperrors.ErrCodeRateLimitExceeded, "Too many requests. Please wait before requesting another code.")
	}

	var (
		account *model.Account
		issued  *verification.Issued
	)
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		accounts := s.accountRepo.WithTx(tx)

		found, err := accounts.FindByEmailForUpdate(ctx, email)
		if err != nil {
			return apperrors.Database(fmt.Errorf("find account: %w", err))
		}
		if found == nil {
			return apperrors.New(apperrors.ErrCodeNotFound, msgNoAccount)
		}
		account = found
		if account.IsVerified {
			return nil
		}

		issued, err = s.issuer.Resend(account)
		if err != nil {
			return fmt.Errorf("issue verification: %w", err)
		}

		err = accounts.SetVerificationCode(ctx, model.SetVerificationCodeParams{
			AccountID:            account.ID,
			VerificationCodeHash: issued.Digest,
			CodeExpiresAt:        issued.ExpiresAt,
			VerificationEpoch:    issued.Epoch,
		})
		if err != nil {
			return apperrors.Database(fmt.Errorf("store verification code: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if account.IsVerified {
		return &ResendResult{Email: email, AlreadyVerified: true}, nil
	}

	msg, err := mail.ResendMessage(email, s.mailData(account, issued))
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		return nil, apperrors.External("mail", err)
	}

	result := &ResendResult{Email: email}

	// A pending session that belongs to another account stays as it is.
	if pending == nil || pending.AccountID == account.ID {
		s.clearPending(ctx, pendingToken)
		result.PendingToken, err = s.pending.Create(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("create pending verification: %w", err)
		}
	}

	log.Info().
		Str("accountId", account.ID).
		Int("epoch", issued.Epoch).
		Msg("verification resent")

	return result, nil
}

func (s *AuthService) mailData(account *model.Account, issued *verification.Issued) mail.VerificationData {
	return mail.VerificationData{
		FirstName: account.FirstName,
		Link:      s.settings.VerifyURL(issued.Token),
		Code:      issued.Code,
		ValidFor:  mail.ValidFor(s.settings.CodeTTL),
	}
}
