package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_CALL_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected 10MiB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.LLMCallTimeout != 30*time.Second {
		t.Fatalf("expected 30s call timeout, got %s", cfg.LLMCallTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("LLM_PROVIDER", "Claude")
	t.Setenv("LLM_CALL_TIMEOUT", "45")
	t.Setenv("ANALYSIS_TIMEOUT", "2m")
	t.Setenv("MAX_CONCURRENCY", "8")
	t.Setenv("API_KEYS", " k1, ,k2 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("expected anthropic provider, got %q", cfg.LLMProvider)
	}
	if cfg.LLMCallTimeout != 45*time.Second {
		t.Fatalf("expected 45s, got %s", cfg.LLMCallTimeout)
	}
	if cfg.AnalysisTimeout != 2*time.Minute {
		t.Fatalf("expected 2m, got %s", cfg.AnalysisTimeout)
	}
	if cfg.MaxConcurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.MaxConcurrency)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[0] != "k1" || cfg.APIKeys[1] != "k2" {
		t.Fatalf("unexpected api keys: %v", cfg.APIKeys)
	}
}

func TestLoadDatabasePoolAndRuntime(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "3")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "docrisk-http")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.LambdaRuntime {
		t.Fatalf("expected lambda runtime to be detected")
	}
	if cfg.DBPool.MaxOpenConns != 3 || cfg.DBPool.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("unexpected pool overrides %+v", cfg.DBPool)
	}
	if cfg.DBPool.MaxIdleConns != 0 || cfg.DBPool.PingTimeout != 0 {
		t.Fatalf("unset pool fields should stay zero, got %+v", cfg.DBPool)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero concurrency", mutate: func(c *Config) { c.MaxConcurrency = 0 }},
		{name: "tiny chunk", mutate: func(c *Config) { c.ChunkMaxChars = 10 }},
		{name: "analysis shorter than call", mutate: func(c *Config) { c.AnalysisTimeout = time.Second }},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "trace" }},
		{name: "s3 without bucket", mutate: func(c *Config) { c.ObjectStoreType = "s3" }},
		{name: "negative pool size", mutate: func(c *Config) { c.DBPool.MaxOpenConns = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestProviderAPIKey(t *testing.T) {
	cfg := Defaults()
	cfg.OpenAIAPIKey = "o"
	cfg.AnthropicAPIKey = "a"
	cfg.GeminiAPIKey = "g"

	for provider, want := range map[string]string{"openai": "o", "anthropic": "a", "gemini": "g", "none": ""} {
		cfg.LLMProvider = provider
		if got := cfg.ProviderAPIKey(); got != want {
			t.Fatalf("provider %s: got %q want %q", provider, got, want)
		}
	}
}
