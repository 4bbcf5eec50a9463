package model

import (
	"time"
)

type Account struct {
	ID                   string     `db:"id" json:"id"`
	FirstName            string     `db:"first_name" json:"firstName"`
	LastName             *string    `db:"last_name" json:"lastName,omitempty"`
	Email                string     `db:"email" json:"email"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	IsVerified           bool       `db:"is_verified" json:"isVerified"`
	IsAdmin              bool       `db:"is_admin" json:"isAdmin"`
	VerificationCodeHash *string    `db:"verification_code_hash" json:"-"`
	CodeExpiresAt        *time.Time `db:"code_expires_at" json:"-"`
	VerificationEpoch    int        `db:"verification_epoch" json:"-"`
	VerifiedAt           *time.Time `db:"verified_at" json:"verifiedAt,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasPendingCode reports whether a verification code digest is stored.
func (a *Account) HasPendingCode() bool {
	return a.VerificationCodeHash != nil && a.CodeExpiresAt != nil
}

// CodeExpired reports whether the pending code is absent or past its expiry at now.
func (a *Account) CodeExpired(now time.Time) bool {
	return !a.HasPendingCode() || now.After(*a.CodeExpiresAt)
}

type CreateAccountParams struct {
	ID                   string
	FirstName            string
	LastName             *string
	Email                string
	PasswordHash         string
	VerificationCodeHash string
	CodeExpiresAt        time.Time
	VerificationEpoch    int
}

type SetVerificationCodeParams struct {
	AccountID            string
	VerificationCodeHash string
	CodeExpiresAt        time.Time
	VerificationEpoch    int
}
