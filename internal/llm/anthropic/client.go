// Package anthropic adapts the Anthropic Messages API to llm.Client.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"docrisk-backend/internal/llm"
	"docrisk-backend/internal/shared/telemetry"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-3-5-haiku-latest"

const defaultMaxTokens = 4096

type newMessageFunc func(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)

// Client implements llm.Client with the Anthropic SDK.
type Client struct {
	model      string
	newMessage newMessageFunc
}

// NewClient constructs a client for apiKey. An empty model selects DefaultModel.
func NewClient(apiKey, model string) (*Client, error) {
	return newClient(apiKey, model)
}

// newClient disables the SDK's own retries; llm.WithRetry owns retrying.
func newClient(apiKey, model string, extra ...option.RequestOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	opts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, extra...)
	client := anthropic.NewClient(opts...)
	return &Client{model: model, newMessage: client.Messages.New}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete sends a single user message. JSON mode is requested through the prompt only.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Temperature))
	}
	if s := strings.TrimSpace(req.System); s != "" {
		params.System = []anthropic.TextBlockParam{{Text: s}}
	}

	resp, err := c.newMessage(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	telemetry.Info("llm.usage", map[string]any{
		"provider":          "anthropic",
		"model":             c.model,
		"stage":             req.Stage,
		"prompt_tokens":     resp.Usage.InputTokens,
		"completion_tokens": resp.Usage.OutputTokens,
	})
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("anthropic response empty content")
	}
	return text, nil
}

var _ llm.Client = (*Client)(nil)
