// Package openai polishes drafted answers via an OpenAI-compatible chat API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// systemPrompt constrains the model to editing: the draft is assembled from
// documentation excerpts and nothing may be added to it.
const systemPrompt = `You edit draft answers about AWS documentation.
Rewrite the draft for clarity and flow. Keep all markdown structure,
code blocks, and the Sources section exactly as given. Do not add facts,
links, or steps that are not in the draft. Return only the revised answer.`

// Summarizer rewrites drafted answers using the OpenAI-compatible API.
type Summarizer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the summarizer settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewSummarizer creates an OpenAI-compatible answer polisher.
func NewSummarizer(cfg *Config) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Summarizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: cfg.Logger,
	}
}

// Polish rewrites draft for readability. The caller falls back to the draft
// on any error, so failures here are reported, never masked.
func (s *Summarizer) Polish(ctx context.Context, question, draft string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Question: %s\n\nDraft answer:\n%s", question, draft),
			},
		},
	})
	if err != nil {
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	polished := strings.TrimSpace(resp.Choices[0].Message.Content)
	if polished == "" {
		return "", fmt.Errorf("blank completion")
	}
	return polished, nil
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	return fmt.Errorf("completion request failed: %w", err)
}
