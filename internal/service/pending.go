package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/motivatem3/server/internal/model"
	appredis "github.com/motivatem3/server/internal/redis"
	"github.com/motivatem3/server/internal/util"
)

type PendingSessions interface {
	Create(ctx context.Context, account *model.Account) (string, error)
	Get(ctx context.Context, token string) (*model.PendingVerification, error)
	Delete(ctx context.Context, token string) error
}

// PendingStore keeps the "verify your email" marker for a browser between
// signup or login and verification. Entries expire with the code.
type PendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPendingStore(client *redis.Client, ttl time.Duration) *PendingStore {
	return &PendingStore{client: client, ttl: ttl}
}

func (s *PendingStore) Create(ctx context.Context, account *model.Account) (string, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	data, err := json.Marshal(model.PendingVerification{
		Email:     account.Email,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(s.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("marshal pending verification: %w", err)
	}

	if err := s.client.Set(ctx, appredis.PendingVerificationKey(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store pending verification: %w", err)
	}
	return token, nil
}

// Get returns nil without error when the token is unknown or expired.
func (s *PendingStore) Get(ctx context.Context, token string) (*model.PendingVerification, error) {
	if token == "" {
		return nil, nil
	}

	data, err := s.client.Get(ctx, appredis.PendingVerificationKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pending verification: %w", err)
	}

	var pending model.PendingVerification
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("decode pending verification: %w", err)
	}
	return &pending, nil
}

func (s *PendingStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, appredis.PendingVerificationKey(token)).Err()
}
