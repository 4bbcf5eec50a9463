package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/model"
)

const (
	maxErrorBody      = 4 << 10
	generateMaxTokens = 100
)

// StatusError is returned when the inference API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference request failed with status %d: %s", e.StatusCode, e.Body)
}

type HuggingFaceConfig struct {
	BaseURL        string
	Token          string
	EmotionModel   string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
}

// HuggingFace talks to the Hugging Face Inference API over plain HTTP.
type HuggingFace struct {
	client         *http.Client
	baseURL        string
	token          string
	emotionModel   string
	embeddingModel string
	chatModel      string
}

func NewHuggingFace(cfg HuggingFaceConfig) *HuggingFace {
	return &HuggingFace{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		emotionModel:   cfg.EmotionModel,
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
	}
}

func (c *HuggingFace) Name() string {
	return "huggingface"
}

// Classify returns the label distribution for text. The API answers either
// with a flat list or with one list per input.
func (c *HuggingFace) Classify(ctx context.Context, text string) ([]model.LabelScore, error) {
	var raw json.RawMessage
	if err := c.post(ctx, c.modelURL(c.emotionModel), map[string]any{"inputs": text}, &raw); err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	var nested [][]model.LabelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	var flat []model.LabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("classify: decode response: %w", err)
	}
	return flat, nil
}

// Embed returns the sentence embedding for text.
func (c *HuggingFace) Embed(ctx context.Context, text string) ([]float32, error) {
	var raw json.RawMessage
	url := c.modelURL(c.embeddingModel) + "/pipeline/feature-extraction"
	if err := c.post(ctx, url, map[string]any{"inputs": text}, &raw); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err == nil {
		return vec, nil
	}

	var rows [][]float32
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("embed: empty response")
	}
	return rows[0], nil
}

type chatCompletionRequest struct {
	Model    string              `json:"model"`
	Messages []model.ChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message model.ChatMessage `json:"message"`
	} `json:"choices"`
}

// Chat calls the OpenAI-compatible chat completions route.
func (c *HuggingFace) Chat(ctx context.Context, messages []model.ChatMessage) (string, error) {
	var resp chatCompletionResponse
	req := chatCompletionRequest{Model: c.chatModel, Messages: messages}
	if err := c.post(ctx, c.baseURL+"/v1/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Generate uses the plain text-generation task.
func (c *HuggingFace) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"max_new_tokens":   generateMaxTokens,
			"return_full_text": false,
		},
	}

	var resp []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := c.post(ctx, c.modelURL(c.chatModel), payload, &resp); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(resp) == 0 {
		return "", errors.New("generate: empty response")
	}
	return strings.TrimSpace(resp[0].GeneratedText), nil
}

func (c *HuggingFace) modelURL(name string) string {
	return c.baseURL + "/hf-inference/models/" + name
}

func (c *HuggingFace) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn().
			Str("url", url).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("inference request failed")
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	log.Debug().
		Str("url", url).
		Dur("elapsed", elapsed).
		Msg("inference request completed")

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
