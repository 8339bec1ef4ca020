package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/live-scoring/models"
	"github.com/sashabaranov/go-openai"
)

// CommentaryGenerator turns a prompt into one line of text.
type CommentaryGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type CommentaryService interface {
	// Describe never fails: an empty string means no commentary.
	Describe(ctx context.Context, sport models.Sport, eventType string, payload json.RawMessage, match *models.Match) string
}

type OpenAICommentatorConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

type OpenAICommentator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAICommentator(cfg OpenAICommentatorConfig) *OpenAICommentator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.8
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 80
	}
	return &OpenAICommentator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (c *OpenAICommentator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type commentaryService struct {
	generator CommentaryGenerator
	timeout   time.Duration
	logger    *slog.Logger
}

func NewCommentaryService(generator CommentaryGenerator, timeout time.Duration, logger *slog.Logger) CommentaryService {
	if timeout <= 0 {
		timeout = 2500 * time.Millisecond
	}
	return &commentaryService{generator: generator, timeout: timeout, logger: logger}
}

func (s *commentaryService) Describe(ctx context.Context, sport models.Sport, eventType string, payload json.RawMessage, match *models.Match) string {
	prompt, err := buildCommentaryPrompt(sport, eventType, payload, match)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to build commentary prompt", slog.String("match_id", match.ID), slog.Any("error", err))
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "Commentary skipped",
			slog.String("match_id", match.ID),
			slog.String("event", eventType),
			slog.Any("error", fmt.Errorf("%w: %w", ErrCommentaryUnavailable, err)),
		)
		return ""
	}
	return text
}

type commentaryEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func buildCommentaryPrompt(sport models.Sport, eventType string, payload json.RawMessage, match *models.Match) (string, error) {
	if len(payload) == 0 {
		payload = nil
	}
	event, err := json.MarshalIndent(commentaryEvent{Type: eventType, Payload: payload}, "", "  ")
	if err != nil {
		return "", err
	}
	snapshot, err := json.MarshalIndent(match, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are a professional sports commentator.\n")
	fmt.Fprintf(&b, "Sport: %s\n\n", sport)
	fmt.Fprintf(&b, "Latest Event:\n%s\n\n", event)
	fmt.Fprintf(&b, "Match Snapshot:\n%s\n\n", snapshot)
	b.WriteString("Generate a concise, energetic one-line live commentary update.\n")
	b.WriteString("Do not repeat old info. Use natural tone (like a human commentator).\n")
	b.WriteString("Keep it under 25 words.\n")
	return b.String(), nil
}
