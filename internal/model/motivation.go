package model

import (
	"time"
)

// Motivation is an append-only history entry. Content is the raw model
// output before markdown rendering.
type Motivation struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"accountId"`
	Content   string    `db:"content" json:"content"`
	Mood      Mood      `db:"mood" json:"mood"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateMotivationParams struct {
	ID        string
	AccountID string
	Content   string
	Mood      Mood
}
