package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/audit"
	"github.com/motivatem3/server/internal/config"
	apperrors "github.com/motivatem3/server/internal/errors"
	"github.com/motivatem3/server/internal/markdown"
	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/repository"
	"github.com/motivatem3/server/internal/safety"
)

const msgGenerateApology = "Sorry, there was an error generating motivation."

// SafetyGate turns a feeling and goal into the prompt sent to the model.
type SafetyGate interface {
	Reframe(ctx context.Context, feeling, goal string) safety.Prompt
}

// TextGenerator is the plain text-generation fallback used when chat fails.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MotivationEntry is a stored motivation with its rendered HTML.
type MotivationEntry struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	HTML      string     `json:"html"`
	Mood      model.Mood `json:"mood"`
	CreatedAt time.Time  `json:"createdAt"`
}

type GenerateResult struct {
	MotivationEntry
	Branch safety.Branch `json:"branch"`
}

type MotivationService struct {
	repo      repository.MotivationRepository
	gate      SafetyGate
	chat      safety.ChatModel
	generator TextGenerator
	renderer  *markdown.Renderer
	limiter   RateLimitChecker
}

func NewMotivationService(
	repo repository.MotivationRepository,
	gate SafetyGate,
	chat safety.ChatModel,
	generator TextGenerator,
	renderer *markdown.Renderer,
	limiter RateLimitChecker,
) *MotivationService {
	return &MotivationService{
		repo:      repo,
		gate:      gate,
		chat:      chat,
		generator: generator,
		renderer:  renderer,
		limiter:   limiter,
	}
}

func (s *MotivationService) Generate(ctx context.Context, accountID, feeling, goal string) (*GenerateResult, error) {
	feeling = strings.TrimSpace(feeling)
	goal = strings.TrimSpace(goal)
	if feeling == "" && goal == "" {
		return nil, apperrors.ValidationError("Please provide a goal or a feeling.")
	}

	if allowed, _ := s.limiter.CheckLimit(ctx, "generate:"+accountID, config.GenerateLimitPerMinute, time.Minute); !allowed {
		return nil, apperrors.RateLimitExceeded()
	}

	prompt := s.gate.Reframe(ctx, feeling, goal)
	if prompt.Branch == safety.BranchReframed {
		audit.Log(ctx, audit.Event{
			Type:      audit.EventSafetyReframe,
			AccountID: accountID,
			Details: map[string]interface{}{
				"harmful":  prompt.Harmful,
				"emotion":  prompt.Emotion.Label,
				"reframed": prompt.Reframed,
			},
		})
	}

	content := s.complete(ctx, prompt.Text)

	motivation, err := s.repo.Create(ctx, model.CreateMotivationParams{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Content:   content,
		Mood:      safety.MapToMood(prompt.Emotion.Label),
	})
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("create motivation: %w", err))
	}

	entry, err := s.entry(motivation)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("accountId", accountID).
		Str("branch", string(prompt.Branch)).
		Str("mood", string(motivation.Mood)).
		Msg("motivation generated")

	return &GenerateResult{MotivationEntry: *entry, Branch: prompt.Branch}, nil
}

// complete asks the chat model first, then plain generation, and settles on
// a fixed apology when both fail.
func (s *MotivationService) complete(ctx context.Context, prompt string) string {
	reply, err := s.chat.Chat(ctx, []model.ChatMessage{{Role: model.ChatRoleUser, Content: prompt}})
	if err == nil && strings.TrimSpace(reply) != "" {
		return strings.TrimSpace(reply)
	}
	log.Warn().Err(err).Msg("chat completion failed, trying text generation")

	text, err := s.generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	log.Error().Err(err).Msg("text generation failed")

	return msgGenerateApology
}

func (s *MotivationService) History(ctx context.Context, accountID string, limit, offset int) ([]MotivationEntry, int, error) {
	rows, err := s.repo.ListByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(fmt.Errorf("list motivations: %w", err))
	}

	total, err := s.repo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, apperrors.Database(fmt.Errorf("count motivations: %w", err))
	}

	entries := make([]MotivationEntry, 0, len(rows))
	for i := range rows {
		entry, err := s.entry(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
	}
	return entries, total, nil
}

func (s *MotivationService) entry(m *model.Motivation) (*MotivationEntry, error) {
	html, err := s.renderer.Render(m.Content)
	if err != nil {
		return nil, err
	}
	return &MotivationEntry{
		ID:        m.ID,
		Content:   m.Content,
		HTML:      html,
		Mood:      m.Mood,
		CreatedAt: m.CreatedAt,
	}, nil
}
