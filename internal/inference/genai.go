package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/safety"
)

const embedTaskType = "SEMANTIC_SIMILARITY"

const classifyPromptTemplate = "Classify the dominant emotion of the text below as exactly one of: %s. " +
	"Reply with JSON only, in the form {\"label\": \"<label>\", \"score\": <confidence between 0 and 1>}.\n\nText: %s"

// GenAI implements the inference collaborators on Google's Gemini API.
type GenAI struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
	timeout        time.Duration
}

func NewGenAI(ctx context.Context, apiKey, chatModel, embeddingModel string, timeout time.Duration) (*GenAI, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{
		client:         client,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		timeout:        timeout,
	}, nil
}

func (g *GenAI) Name() string {
	return "genai:" + g.chatModel
}

func (g *GenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	result, err := g.client.Models.EmbedContent(ctx,
		g.embeddingModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{TaskType: embedTaskType},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

func (g *GenAI) Chat(ctx context.Context, messages []model.ChatMessage) (string, error) {
	system, contents := splitMessages(messages)
	if len(contents) == 0 {
		return "", errors.New("chat: no user or assistant messages")
	}
	return g.generate(ctx, contents, &genai.GenerateContentConfig{SystemInstruction: system})
}

func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
}

func (g *GenAI) Classify(ctx context.Context, text string) ([]model.LabelScore, error) {
	prompt := fmt.Sprintf(classifyPromptTemplate, strings.Join(safety.Labels, ", "), text)
	reply, err := g.generate(ctx,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	return parseClassification(reply)
}

func (g *GenAI) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.chatModel, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("GenAI returned no text")
	}
	return text, nil
}

func (g *GenAI) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// splitMessages moves system turns into a single system instruction and maps
// assistant turns onto the model role.
func splitMessages(messages []model.ChatMessage) (*genai.Content, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case model.ChatRoleSystem:
			system = append(system, m.Content)
		case model.ChatRoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	if len(system) == 0 {
		return nil, contents
	}
	return genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser), contents
}

func parseClassification(reply string) ([]model.LabelScore, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	var result model.LabelScore
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &result); err != nil {
		return nil, fmt.Errorf("classify: decode reply: %w", err)
	}
	if result.Label == "" {
		return nil, errors.New("classify: reply has no label")
	}
	if result.Score <= 0 || result.Score > 1 {
		result.Score = 1.0
	}
	return []model.LabelScore{result}, nil
}
