package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/config"
	apperrors "github.com/motivatem3/server/internal/errors"
	"github.com/motivatem3/server/internal/model"
	appredis "github.com/motivatem3/server/internal/redis"
	"github.com/motivatem3/server/internal/safety"
)

const (
	coachSystemPrompt = "Be supportive, concise and practical. Ask one short follow-up question only when needed."
	coachFallback     = "Sorry, I couldn't generate a response right now."

	// chatHistoryLimit counts user and assistant turns; the system prompt is
	// kept on top of it.
	chatHistoryLimit = 20
)

// ChatService runs the coach conversation. History lives in a Redis list per
// account, headed by the system prompt.
type ChatService struct {
	client  *redis.Client
	chat    safety.ChatModel
	limiter RateLimitChecker
	ttl     time.Duration
}

func NewChatService(client *redis.Client, chat safety.ChatModel, limiter RateLimitChecker) *ChatService {
	return &ChatService{
		client:  client,
		chat:    chat,
		limiter: limiter,
		ttl:     config.ChatHistoryTTL,
	}
}

func (s *ChatService) Send(ctx context.Context, accountID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.MissingRequired("Message")
	}

	if allowed, _ := s.limiter.CheckLimit(ctx, "chat:"+accountID, config.ChatLimitPerMinute, time.Minute); !allowed {
		return "", apperrors.RateLimitExceeded()
	}

	history, err := s.load(ctx, accountID)
	if err != nil {
		return "", err
	}
	if len(history) == 0 || history[0].Role != model.ChatRoleSystem {
		history = append([]model.ChatMessage{{Role: model.ChatRoleSystem, Content: coachSystemPrompt}}, history...)
	}
	history = append(history, model.ChatMessage{Role: model.ChatRoleUser, Content: message})

	reply, err := s.chat.Chat(ctx, history)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		log.Warn().Err(err).Str("accountId", accountID).Msg("coach reply failed, using fallback")
		reply = coachFallback
	}
	history = append(history, model.ChatMessage{Role: model.ChatRoleAssistant, Content: reply})

	if err := s.store(ctx, accountID, trimHistory(history)); err != nil {
		return "", err
	}
	return reply, nil
}

// History returns the conversation without the system prompt.
func (s *ChatService) History(ctx context.Context, accountID string) ([]model.ChatMessage, error) {
	history, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	out := make([]model.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role == model.ChatRoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *ChatService) Reset(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, appredis.ChatHistoryKey(accountID)).Err(); err != nil {
		return fmt.Errorf("reset chat history: %w", err)
	}
	return nil
}

func (s *ChatService) load(ctx context.Context, accountID string) ([]model.ChatMessage, error) {
	raw, err := s.client.LRange(ctx, appredis.ChatHistoryKey(accountID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	history := make([]model.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m model.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			log.Warn().Err(err).Str("accountId", accountID).Msg("skipping malformed chat entry")
			continue
		}
		history = append(history, m)
	}
	return history, nil
}

func (s *ChatService) store(ctx context.Context, accountID string, history []model.ChatMessage) error {
	values := make([]interface{}, 0, len(history))
	for _, m := range history {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal chat entry: %w", err)
		}
		values = append(values, data)
	}

	key := appredis.ChatHistoryKey(accountID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, values...)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store chat history: %w", err)
	}
	return nil
}

// trimHistory keeps the leading system prompt and the last chatHistoryLimit
// messages.
func trimHistory(history []model.ChatMessage) []model.ChatMessage {
	if len(history) <= chatHistoryLimit+1 {
		return history
	}
	trimmed := make([]model.ChatMessage, 0, chatHistoryLimit+1)
	trimmed = append(trimmed, history[0])
	return append(trimmed, history[len(history)-chatHistoryLimit:]...)
}
