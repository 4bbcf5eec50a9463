package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/motivatem3/server/internal/database"
	"github.com/motivatem3/server/internal/model"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Account, error)
	FindByEmailForUpdate(ctx context.Context, email string) (*model.Account, error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	SetVerificationCode(ctx context.Context, params model.SetVerificationCodeParams) error
	// MarkVerified reports false when the account was already verified.
	MarkVerified(ctx context.Context, id string) (bool, error)
	SetAdmin(ctx context.Context, email string, isAdmin bool) (bool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]model.Account, error)
	Count(ctx context.Context) (int, error)
	CountVerified(ctx context.Context) (int, error)
	ClearExpiredCodes(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccountRepository
}

type accountRepo struct {
	db database.DBTX
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) WithTx(tx *sqlx.Tx) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return getOne[model.Account](ctx, r.db, `SELECT * FROM accounts WHERE id = $1`, id)
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return getOne[model.Account](ctx, r.db, `SELECT * FROM accounts WHERE email = $1`, email)
}

func (r *accountRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Account, error) {
	return getOne[model.Account](ctx, r.db, `SELECT * FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *accountRepo) FindByEmailForUpdate(ctx context.Context, email string) (*model.Account, error) {
	return getOne[model.Account](ctx, r.db, `SELECT * FROM accounts WHERE email = $1 FOR UPDATE`, email)
}

func (r *accountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO accounts (
			id, first_name, last_name, email, password_hash,
			verification_code_hash, code_expires_at, verification_epoch
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.ID, params.FirstName, params.LastName, params.Email, params.PasswordHash,
		params.VerificationCodeHash, params.CodeExpiresAt, params.VerificationEpoch)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) SetVerificationCode(ctx context.Context, params model.SetVerificationCodeParams) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET
			verification_code_hash = $2,
			code_expires_at = $3,
			verification_epoch = $4,
			updated_at = $5
		WHERE id = $1 AND is_verified = FALSE
	`, params.AccountID, params.VerificationCodeHash, params.CodeExpiresAt, params.VerificationEpoch, time.Now())
	return err
}

func (r *accountRepo) MarkVerified(ctx context.Context, id string) (bool, error) {
	now := time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET
			is_verified = TRUE,
			verification_code_hash = NULL,
			code_expires_at = NULL,
			verified_at = $2,
			updated_at = $2
		WHERE id = $1 AND is_verified = FALSE
	`, id, now)
	n, err := affected(result, err)
	return n == 1, err
}

func (r *accountRepo) SetAdmin(ctx context.Context, email string, isAdmin bool) (bool, error) {
	n, err := affected(r.db.ExecContext(ctx, `
		UPDATE accounts SET is_admin = $2, updated_at = $3 WHERE email = $1
	`, email, isAdmin, time.Now()))
	return n == 1, err
}

func (r *accountRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

func (r *accountRepo) List(ctx context.Context, limit, offset int) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts`)
	return count, err
}

func (r *accountRepo) CountVerified(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts WHERE is_verified = TRUE`)
	return count, err
}

// ClearExpiredCodes drops digests whose expiry has passed. Both fields are
// cleared together.
func (r *accountRepo) ClearExpiredCodes(ctx context.Context) (int64, error) {
	return affected(r.db.ExecContext(ctx, `
		UPDATE accounts SET
			verification_code_hash = NULL,
			code_expires_at = NULL,
			updated_at = NOW()
		WHERE code_expires_at IS NOT NULL AND code_expires_at < NOW()
	`))
}
