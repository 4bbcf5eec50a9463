package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const rateLimitKeyPrefix = "ratelimit:"

// slidingWindowScript keeps one sorted-set member per accepted hit, scored
// by its time in milliseconds. It returns {allowed, resetAtMillis}; when the
// window is full, reset is when the oldest hit ages out.
//
// KEYS[1] bucket, ARGV now, window, limit, member.
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)

if redis.call('ZCARD', KEYS[1]) >= limit then
    local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
    if #oldest < 2 then
        return {0, now + window}
    end
    return {0, tonumber(oldest[2]) + window}
end

redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return {1, now + window}
`)

// RateLimitChecker records a hit against key and reports whether it fits.
type RateLimitChecker interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, resetAt time.Time)
}

var _ RateLimitChecker = (*RateLimiter)(nil)

// RateLimiter is a Redis sliding-window limiter shared by the verification,
// resend, login, signup, generate and chat throttles.
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// CheckLimit fails closed: if Redis cannot answer, the hit is denied.
func (rl *RateLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Time) {
	now := rl.now()
	denied := now.Add(window)

	res, err := slidingWindowScript.Run(ctx, rl.client,
		[]string{rateLimitKeyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, denying")
		return false, denied
	}
	if len(res) != 2 {
		log.Warn().Str("key", key).Int("len", len(res)).Msg("unexpected rate limit reply, denying")
		return false, denied
	}

	return res[0] == 1, time.UnixMilli(res[1])
}

// RetryAfter is the whole number of seconds until resetAt, at least 1.
func RetryAfter(resetAt time.Time) int {
	secs := int(time.Until(resetAt).Seconds() + 0.999)
	if secs < 1 {
		return 1
	}
	return secs
}
