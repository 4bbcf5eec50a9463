package safety

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/config"
	"github.com/motivatem3/server/internal/model"
)

type Classifier interface {
	Classify(ctx context.Context, text string) ([]model.LabelScore, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type ChatModel interface {
	Chat(ctx context.Context, messages []model.ChatMessage) (string, error)
}

// Emotion is the classifier's top label. Fallback is set when the
// classifier could not be used and neutral was substituted.
type Emotion struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Fallback bool    `json:"fallback"`
}

type Branch string

const (
	BranchDirect   Branch = "direct"
	BranchReframed Branch = "reframed"
)

// Prompt is the final text for the generative model plus how it was built.
// Reframed is false on the reframed branch when the neutral restatement
// could not be obtained and the combined input was used verbatim.
type Prompt struct {
	Text     string
	Branch   Branch
	Emotion  Emotion
	Harmful  bool
	Reframed bool
}

// Gate decides whether user text needs sanitizing before it reaches a
// generative model. Collaborator failures never surface as errors:
//   - classifier failure yields neutral with score 1.0
//   - embedder failure yields an empty vector, which is treated as not harmful
//   - chat failure during reframing yields the unsanitized combined text
type Gate struct {
	classifier Classifier
	embedder   Embedder
	chat       ChatModel
	cache      *ReferenceCache
	threshold  float64
}

func NewGate(classifier Classifier, embedder Embedder, chat ChatModel, cache *ReferenceCache, threshold float64) *Gate {
	if cache == nil {
		cache = NewReferenceCache(HarmfulPhrases)
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{
		classifier: classifier,
		embedder:   embedder,
		chat:       chat,
		cache:      cache,
		threshold:  threshold,
	}
}

func (g *Gate) ClassifyEmotion(ctx context.Context, text string) Emotion {
	scores, err := g.classifier.Classify(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("emotion classification failed, using neutral")
		return Emotion{Label: LabelNeutral, Score: 1.0, Fallback: true}
	}
	if len(scores) == 0 {
		log.Warn().Msg("emotion classifier returned no labels, using neutral")
		return Emotion{Label: LabelNeutral, Score: 1.0, Fallback: true}
	}

	top := scores[0]
	for _, s := range scores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}

	return Emotion{
		Label: strings.ToLower(strings.TrimSpace(top.Label)),
		Score: top.Score,
	}
}

// Embed returns nil when the embedder fails.
func (g *Gate) Embed(ctx context.Context, text string) []float32 {
	vec, err := g.embedder.Embed(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("embedding failed")
		return nil
	}
	return vec
}

// IsHarmful fails open: without an embedding for text it returns false.
func (g *Gate) IsHarmful(ctx context.Context, text string) bool {
	vec := g.Embed(ctx, text)
	if len(vec) == 0 {
		return false
	}

	for _, ref := range g.references(ctx) {
		if sim, ok := CosineSimilarity(vec, ref); ok && sim > g.threshold {
			return true
		}
	}
	return false
}

// Warm computes the reference embeddings ahead of the first request.
func (g *Gate) Warm(ctx context.Context) int {
	return len(g.references(ctx))
}

// The cache outlives any one request, so its computation ignores the
// triggering request's cancellation. It keeps the caller's deadline, capped
// at config.SafetyWarmTimeout.
func (g *Gate) references(ctx context.Context) [][]float32 {
	deadline := time.Now().Add(config.SafetyWarmTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	refCtx, cancel := context.WithDeadline(context.WithoutCancel(ctx), deadline)
	defer cancel()
	return g.cache.Vectors(refCtx, g.Embed)
}

func (g *Gate) Reframe(ctx context.Context, feeling, goal string) Prompt {
	combined := combineInput(feeling, goal)

	subject := feeling
	if subject == "" {
		subject = goal
	}
	emotion := g.ClassifyEmotion(ctx, subject)
	harmful := g.IsHarmful(ctx, combined)

	if !harmful && !riskyLabels[emotion.Label] {
		return Prompt{
			Text:    directPrompt(feeling, goal),
			Branch:  BranchDirect,
			Emotion: emotion,
		}
	}

	safeText, reframed := g.neutralize(ctx, combined)
	return Prompt{
		Text:     reframedPrompt(safeText),
		Branch:   BranchReframed,
		Emotion:  emotion,
		Harmful:  harmful,
		Reframed: reframed,
	}
}

func (g *Gate) neutralize(ctx context.Context, combined string) (string, bool) {
	reply, err := g.chat.Chat(ctx, []model.ChatMessage{
		{Role: model.ChatRoleUser, Content: reframeInstruction(combined)},
	})
	if err != nil {
		log.Warn().Err(err).Msg("safe reframing failed, using combined input")
		return combined, false
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		log.Warn().Msg("safe reframing returned empty text, using combined input")
		return combined, false
	}
	return reply, true
}
