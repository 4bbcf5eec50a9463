package model

import (
	"time"
)

type Session struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	AccountID string    `db:"account_id" json:"accountId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateSessionParams struct {
	ID        string
	TokenHash string
	AccountID string
	ExpiresAt time.Time
}

// PendingVerification routes a not-yet-verified user to the verify step.
// It lives in Redis only.
type PendingVerification struct {
	Email     string    `json:"email"`
	AccountID string    `json:"accountId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
