package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/motivatem3/server/internal/database"
	"github.com/motivatem3/server/internal/model"
)

type MotivationRepository interface {
	Create(ctx context.Context, params model.CreateMotivationParams) (*model.Motivation, error)
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Motivation, error)
	CountByAccountID(ctx context.Context, accountID string) (int, error)
	Count(ctx context.Context) (int, error)
}

type motivationRepo struct {
	db database.DBTX
}

func NewMotivationRepository(db *sqlx.DB) MotivationRepository {
	return &motivationRepo{db: db}
}

func (r *motivationRepo) Create(ctx context.Context, params model.CreateMotivationParams) (*model.Motivation, error) {
	var m model.Motivation
	err := r.db.GetContext(ctx, &m, `
		INSERT INTO motivations (id, account_id, content, mood)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ID, params.AccountID, params.Content, params.Mood)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByAccountID returns the account's history, newest first.
func (r *motivationRepo) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Motivation, error) {
	var items []model.Motivation
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM motivations
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *motivationRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM motivations WHERE account_id = $1`, accountID)
	return count, err
}

func (r *motivationRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM motivations`)
	return count, err
}
