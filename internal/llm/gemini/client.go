// Package gemini adapts the Google Gen AI SDK to llm.Client.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"docrisk-backend/internal/llm"
	"docrisk-backend/internal/shared/telemetry"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client implements llm.Client with GenerateContent.
type Client struct {
	model    string
	generate generateFunc
}

// NewClient constructs a Gemini API client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{model: model, generate: client.Models.GenerateContent}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete sends one user turn. JSON requests set the response MIME type.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if s := strings.TrimSpace(req.System); s != "" {
		config.SystemInstruction = genai.NewContentFromText(s, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := c.generate(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(firstCandidateText(resp))
	if text == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	fields := map[string]any{"provider": "gemini", "model": c.model, "stage": req.Stage}
	if resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
	}
	telemetry.Info("llm.usage", fields)
	return text, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

var _ llm.Client = (*Client)(nil)
