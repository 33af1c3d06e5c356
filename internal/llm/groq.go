package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// GroqClient implements Completer against Groq's OpenAI-compatible chat API.
// Any OpenAI-compatible endpoint works by overriding the base URL.
type GroqClient struct {
	model   llms.Model
	timeout time.Duration
}

// NewGroqClient builds a client for the given endpoint and model. The
// timeout bounds every completion call; a stuck provider degrades the
// request instead of hanging it.
func NewGroqClient(baseURL, apiKey, model string, timeout time.Duration) (*GroqClient, error) {
	if apiKey == "" {
		return nil, errors.New("llm: api key required")
	}
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return &GroqClient{model: client, timeout: timeout}, nil
}

func (g *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	content := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(req.System)}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(req.User)}},
	}
	opts := []llms.CallOption{llms.WithMaxTokens(req.MaxTokens)}
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	resp, err := g.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: completion returned no choices")
	}
	return resp.Choices[0].Content, nil
}
