package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Key namespaces. The rate limiter owns "ratelimit:".
const (
	pendingVerificationPrefix = "pending_verification:"
	chatHistoryPrefix         = "chat_history:"
)

type Client struct {
	*redis.Client
}

// NewClient parses a redis:// or rediss:// URL and verifies the server
// answers before returning.
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// Ping backs the /health redis check.
func (c *Client) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func PendingVerificationKey(token string) string {
	return pendingVerificationPrefix + token
}

func ChatHistoryKey(accountID string) string {
	return chatHistoryPrefix + accountID
}
