package safety

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const warmConcurrency = 4

// ReferenceCache holds the embeddings of the harmful reference phrases. A
// computation that embeds at least one phrase is kept for the life of the
// cache, with failed phrases left out. A computation that embeds none is
// discarded and the next caller tries again.
type ReferenceCache struct {
	phrases []string

	mu      sync.Mutex
	done    bool
	vectors [][]float32
}

func NewReferenceCache(phrases []string) *ReferenceCache {
	p := make([]string, len(phrases))
	copy(p, phrases)
	return &ReferenceCache{phrases: p}
}

// Vectors returns the cached embeddings, computing them with embed until a
// computation succeeds. Concurrent callers block until the computation ends.
func (c *ReferenceCache) Vectors(ctx context.Context, embed func(context.Context, string) []float32) [][]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return c.vectors
	}

	vectors := c.compute(ctx, embed)
	if len(vectors) == 0 {
		log.Warn().Int("phrases", len(c.phrases)).Msg("no reference phrase could be embedded, will retry on next use")
		return nil
	}

	c.vectors = vectors
	c.done = true
	return c.vectors
}

func (c *ReferenceCache) compute(ctx context.Context, embed func(context.Context, string) []float32) [][]float32 {
	results := make([][]float32, len(c.phrases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for i, phrase := range c.phrases {
		g.Go(func() error {
			results[i] = embed(gctx, phrase)
			return nil
		})
	}
	_ = g.Wait()

	vectors := make([][]float32, 0, len(results))
	for i, v := range results {
		if len(v) == 0 {
			log.Warn().Str("phrase", c.phrases[i]).Msg("reference phrase embedding unavailable, excluded from harm check")
			continue
		}
		vectors = append(vectors, v)
	}

	log.Info().
		Int("cached", len(vectors)).
		Int("phrases", len(c.phrases)).
		Msg("harmful reference embeddings cached")

	return vectors
}
