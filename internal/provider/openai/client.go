package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	gopenai "github.com/sashabaranov/go-openai"
)

// Config holds the OpenAI-compatible completion backend settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client is the text-completion provider backed by an OpenAI-compatible chat
// completions endpoint.
type Client struct {
	api   *gopenai.Client
	model string
}

// NewClient creates a completion client.
func NewClient(cfg Config) *Client {
	apiCfg := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:   gopenai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
	}
}

// Complete sends the prompt as a single user message and returns the model's
// raw reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ pickup.CompletionProvider = (*Client)(nil)
