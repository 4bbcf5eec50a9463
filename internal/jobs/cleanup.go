package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/config"
)

// SessionPurger deletes login sessions past their expiry.
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CodePurger clears verification codes past their expiry, hash and expiry
// together.
type CodePurger interface {
	ClearExpiredCodes(ctx context.Context) (int64, error)
}

type CleanupJob struct {
	sessions SessionPurger
	codes    CodePurger
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewCleanupJob(sessions SessionPurger, codes CodePurger, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		codes:    codes,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

// Stop waits for an in-flight pass to finish. It is safe to call twice.
func (j *CleanupJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.done)
		<-j.stopped
		log.Info().Msg("cleanup job stopped")
	})
}

func (j *CleanupJob) run() {
	defer close(j.stopped)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.RunOnce()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.RunOnce()
		}
	}
}

func (j *CleanupJob) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), config.CleanupJobTimeout)
	defer cancel()

	if j.sessions != nil {
		j.runCleanup(ctx, "sessions", j.sessions.DeleteExpired)
	}
	if j.codes != nil {
		j.runCleanup(ctx, "verification codes", j.codes.ClearExpiredCodes)
	}
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
