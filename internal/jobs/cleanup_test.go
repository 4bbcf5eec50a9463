package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingPurger struct {
	calls atomic.Int32
	count int64
	err   error
}

func (p *countingPurger) DeleteExpired(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	return p.count, p.err
}

func (p *countingPurger) ClearExpiredCodes(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	return p.count, p.err
}

func TestCleanupJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewCleanupJob(nil, nil, 5*time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("runs both purges once", func(t *testing.T) {
		sessions := &countingPurger{count: 3}
		codes := &countingPurger{count: 2}

		NewCleanupJob(sessions, codes, time.Minute).RunOnce()

		assert.Equal(t, int32(1), sessions.calls.Load())
		assert.Equal(t, int32(1), codes.calls.Load())
	})

	t.Run("a failing purge does not stop the other", func(t *testing.T) {
		sessions := &countingPurger{err: errors.New("db down")}
		codes := &countingPurger{}

		NewCleanupJob(sessions, codes, time.Minute).RunOnce()

		assert.Equal(t, int32(1), codes.calls.Load())
	})

	t.Run("runs on start and on each tick", func(t *testing.T) {
		sessions := &countingPurger{}
		codes := &countingPurger{}

		job := NewCleanupJob(sessions, codes, 20*time.Millisecond)
		job.Start()

		assert.Eventually(t, func() bool {
			return sessions.calls.Load() >= 2 && codes.calls.Load() >= 2
		}, time.Second, 5*time.Millisecond)

		job.Stop()
		job.Stop()
	})

	t.Run("nil purgers are skipped", func(t *testing.T) {
		assert.NotPanics(t, func() {
			NewCleanupJob(nil, nil, time.Minute).RunOnce()
		})
	})
}
