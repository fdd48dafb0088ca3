package openai

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

	"docrisk-backend/internal/llm"
	"docrisk-backend/internal/shared/telemetry"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Options configures the OpenAI client.
type Options struct {
	APIKey string
	Model  string
	// Timeout bounds the whole HTTP exchange. Zero means 120s.
	Timeout time.Duration
	// NoTemperatureModels lists models that reject an explicit temperature.
	NoTemperatureModels []string
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	noTemp     map[string]bool
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	noTemp := make(map[string]bool, len(opts.NoTemperatureModels))
	for _, m := range opts.NoTemperatureModels {
		noTemp[strings.ToLower(strings.TrimSpace(m))] = true
	}
	return &Client{
		apiKey:     opts.APIKey,
		model:      model,
		noTemp:     noTemp,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	Temperature         *float32        `json:"temperature,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

var errTemperatureUnsupported = errors.New("openai: temperature unsupported for model")

// Complete sends one chat completion. When the model rejects an explicit
// temperature the request is repeated once without it.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	body := chatRequest{Model: c.model}
	// reasoning models spend the completion budget before writing any output
	if !isReasoningModel(c.model) {
		body.MaxCompletionTokens = req.MaxTokens
	}
	if s := strings.TrimSpace(req.System); s != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: s})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if req.Temperature != nil && c.acceptsTemperature() {
		body.Temperature = req.Temperature
	}

	out, err := c.send(ctx, req.Stage, body)
	if errors.Is(err, errTemperatureUnsupported) && body.Temperature != nil {
		body.Temperature = nil
		out, err = c.send(ctx, req.Stage, body)
	}
	return out, err
}

func (c *Client) acceptsTemperature() bool {
	model := strings.ToLower(c.model)
	return !isGPT5(model) && !c.noTemp[model]
}

func (c *Client) send(ctx context.Context, stage string, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		if isTemperatureUnsupported(parsed.Error.Message) {
			return "", fmt.Errorf("%w: %s", errTemperatureUnsupported, parsed.Error.Message)
		}
		return "", fmt.Errorf("openai http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}

	logUsage(c.model, stage, parsed.Usage)
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	return content, nil
}

func isTemperatureUnsupported(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "unsupported value") && strings.Contains(msg, "temperature")
}

func logUsage(model, stage string, usage *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) {
	fields := map[string]any{"provider": "openai", "model": model, "stage": stage}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.usage", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	if isGPT5(m) {
		return true
	}
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if m == prefix || strings.HasPrefix(m, prefix+"-") {
			return true
		}
	}
	return false
}

var _ llm.Client = (*Client)(nil)
