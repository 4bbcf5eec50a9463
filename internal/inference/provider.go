package inference

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/config"
	"github.com/motivatem3/server/internal/safety"
)

// Provider bundles every inference collaborator the server needs.
type Provider interface {
	safety.Classifier
	safety.Embedder
	safety.ChatModel
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

var (
	_ Provider = (*HuggingFace)(nil)
	_ Provider = (*GenAI)(nil)
)

// New builds the provider selected by INFERENCE_PROVIDER.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.InferenceProvider {
	case "huggingface":
		p := NewHuggingFace(HuggingFaceConfig{
			BaseURL:        cfg.HFBaseURL,
			Token:          cfg.HFToken,
			EmotionModel:   cfg.EmotionModel,
			EmbeddingModel: cfg.EmbeddingModel,
			ChatModel:      cfg.ChatModel,
			Timeout:        cfg.InferenceTimeout(),
		})
		log.Info().
			Str("provider", p.Name()).
			Str("emotionModel", cfg.EmotionModel).
			Str("embeddingModel", cfg.EmbeddingModel).
			Str("chatModel", cfg.ChatModel).
			Msg("inference provider configured")
		return p, nil

	case "genai":
		p, err := NewGenAI(ctx, cfg.GenAIAPIKey, cfg.GenAIChatModel, cfg.GenAIEmbeddingModel, cfg.InferenceTimeout())
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("provider", p.Name()).
			Str("embeddingModel", cfg.GenAIEmbeddingModel).
			Msg("inference provider configured")
		return p, nil

	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.InferenceProvider)
	}
}
