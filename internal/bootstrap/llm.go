package bootstrap

import (
	"context"
	"fmt"

	"docrisk-backend/internal/llm"
	"docrisk-backend/internal/llm/anthropic"
	"docrisk-backend/internal/llm/gemini"
	"docrisk-backend/internal/llm/openai"
	"docrisk-backend/internal/shared/config"
	"docrisk-backend/internal/shared/telemetry"
)

// ProviderNone marks the placeholder client that fails every call.
const ProviderNone = "none"

// LLM is the configured provider behind the standard wrappers.
type LLM struct {
	Provider string
	Model    string
	Stack    llm.Stack
}

// BuildLLM selects the provider client from cfg. A missing credential falls back
// to the placeholder in dev and fails elsewhere.
func BuildLLM(ctx context.Context, cfg config.Config) (LLM, error) {
	base, model, err := providerClient(ctx, cfg)
	provider := cfg.LLMProvider
	if err != nil {
		if !cfg.IsDevLike() {
			return LLM{}, err
		}
		telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": provider, "error": err.Error()})
		base, model, provider = llm.PlaceholderClient{}, "", ProviderNone
	}
	if base == nil {
		base, model, provider = llm.PlaceholderClient{}, "", ProviderNone
	}

	return LLM{
		Provider: provider,
		Model:    model,
		Stack: llm.Wrap(base, llm.Options{
			Provider:    provider,
			CallTimeout: cfg.LLMCallTimeout,
			MaxAttempts: cfg.LLMMaxAttempts,
			RPS:         cfg.LLMRPS,
			Burst:       cfg.LLMBurst,
		}),
	}, nil
}

func providerClient(ctx context.Context, cfg config.Config) (llm.Client, string, error) {
	switch cfg.LLMProvider {
	case "openai":
		c, err := openai.NewClient(openai.Options{
			APIKey:              cfg.OpenAIAPIKey,
			Model:               cfg.LLMModel,
			Timeout:             cfg.LLMCallTimeout,
			NoTemperatureModels: cfg.LLMNoTempModels,
		})
		if err != nil {
			return nil, "", err
		}
		return c, c.Model(), nil
	case "anthropic":
		c, err := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, "", err
		}
		return c, c.Model(), nil
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, "", err
		}
		return c, c.Model(), nil
	case ProviderNone:
		return nil, "", nil
	default:
		return nil, "", fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
