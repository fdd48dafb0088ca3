package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration. It is built once at startup and
// passed by value; nothing reads the environment after Load returns.
type Config struct {
	Port            string
	Env             string   `validate:"oneof=production staging local dev"`
	LogLevel        string   `validate:"oneof=debug info warn error"`
	CORSAllowOrigin []string
	APIKeys         []string

	ObjectStoreType string `validate:"oneof=local s3"`
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string `validate:"required_if=ObjectStoreType s3"`
	S3Prefix        string
	SSEKMSKeyID     string
	UploadsPrefix   string

	DatabaseURL   string
	DBPool        DBPool
	LambdaRuntime bool

	LLMProvider     string `validate:"oneof=openai anthropic gemini none"`
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string
	LLMNoTempModels []string
	LLMRPS          float64       `validate:"gte=0"`
	LLMBurst        int           `validate:"gte=1"`
	LLMMaxAttempts  int           `validate:"gte=1,lte=10"`
	LLMCallTimeout  time.Duration `validate:"gte=1s"`
	AnalysisTimeout time.Duration `validate:"gtefield=LLMCallTimeout"`

	MaxUploadBytes      int64 `validate:"gte=1024"`
	ChunkMaxChars       int   `validate:"gte=500,lte=200000"`
	ClassifyMaxChars    int   `validate:"gte=200"`
	ClassifyMaxAttempts int   `validate:"gte=1,lte=10"`
	MaxClauses          int   `validate:"gte=1,lte=500"`
	MaxConcurrency      int   `validate:"gte=1,lte=64"`
	RiskPolicyFile      string

	AnalyzeRateLimitRPS   float64 `validate:"gte=0"`
	AnalyzeRateLimitBurst int     `validate:"gte=0"`
}

// DBPool overrides the pool profile chosen at startup. Zero fields keep the profile value.
type DBPool struct {
	MaxOpenConns    int           `validate:"gte=0"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
	ConnMaxIdleTime time.Duration `validate:"gte=0"`
	PingTimeout     time.Duration `validate:"gte=0"`
}

// Defaults returns the configuration used when no environment overrides are set.
func Defaults() Config {
	return Config{
		Port:                  "8080",
		Env:                   "dev",
		LogLevel:              "info",
		CORSAllowOrigin:       []string{"http://localhost:5173"},
		ObjectStoreType:       "local",
		LocalStoreDir:         "./data",
		UploadsPrefix:         "documents/",
		LLMProvider:           "openai",
		LLMRPS:                5,
		LLMBurst:              5,
		LLMMaxAttempts:        3,
		LLMCallTimeout:        30 * time.Second,
		AnalysisTimeout:       5 * time.Minute,
		MaxUploadBytes:        10 << 20,
		ChunkMaxChars:         12000,
		ClassifyMaxChars:      3000,
		ClassifyMaxAttempts:   3,
		MaxClauses:            60,
		MaxConcurrency:        4,
		AnalyzeRateLimitRPS:   0.5,
		AnalyzeRateLimitBurst: 5,
	}
}

// Load reads configuration from environment variables on top of Defaults and validates it.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience. Real env wins.
	for _, path := range []string{".env", "cmd/.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				log.Printf("config: ignoring %s: %v", path, err)
			}
		}
	}

	def := Defaults()
	env := normalizeEnv(getEnv("ENV", def.Env))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is not set; run history stays in memory")
	}

	cfg := Config{
		Port:            getEnv("PORT", def.Port),
		Env:             env,
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", def.LogLevel)),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", strings.Join(def.CORSAllowOrigin, ","))),
		APIKeys:         splitAndTrim(os.Getenv("API_KEYS")),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", def.ObjectStoreType)),
		LocalStoreDir:   getEnv("UPLOAD_DIR", getEnv("LOCAL_STORE_DIR", def.LocalStoreDir)),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		UploadsPrefix:   getEnv("UPLOADS_S3_PREFIX", def.UploadsPrefix),

		DatabaseURL:   dbURL,
		LambdaRuntime: getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != "",

		LLMProvider:     normalizeProvider(getEnv("LLM_PROVIDER", def.LLMProvider)),
		LLMModel:        getEnv("LLM_MODEL", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
		LLMNoTempModels: splitAndTrim(getEnv("LLM_NO_TEMP0_MODELS", "")),
		LLMRPS:          getEnvFloat("LLM_RPS", def.LLMRPS),
		LLMBurst:        getEnvInt("LLM_BURST", def.LLMBurst),
		LLMMaxAttempts:  getEnvInt("LLM_MAX_ATTEMPTS", def.LLMMaxAttempts),
		LLMCallTimeout:  getEnvDuration("LLM_CALL_TIMEOUT", def.LLMCallTimeout),
		AnalysisTimeout: getEnvDuration("ANALYSIS_TIMEOUT", def.AnalysisTimeout),

		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_BYTES", int(def.MaxUploadBytes))),
		ChunkMaxChars:       getEnvInt("CHUNK_MAX_CHARS", def.ChunkMaxChars),
		ClassifyMaxChars:    getEnvInt("CLASSIFY_MAX_CHARS", def.ClassifyMaxChars),
		ClassifyMaxAttempts: getEnvInt("CLASSIFY_MAX_ATTEMPTS", def.ClassifyMaxAttempts),
		MaxClauses:          getEnvInt("MAX_CLAUSES", def.MaxClauses),
		MaxConcurrency:      getEnvInt("MAX_CONCURRENCY", def.MaxConcurrency),
		RiskPolicyFile:      getEnv("RISK_POLICY_FILE", ""),

		AnalyzeRateLimitRPS:   getEnvFloat("ANALYZE_RATE_LIMIT_RPS", def.AnalyzeRateLimitRPS),
		AnalyzeRateLimitBurst: getEnvInt("ANALYZE_RATE_LIMIT_BURST", def.AnalyzeRateLimitBurst),
	}

	cfg.DBPool = DBPool{
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 0),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 0),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 0),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 0),
		PingTimeout:     getEnvDuration("DB_PING_TIMEOUT", 0),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ProviderAPIKey returns the credential for the configured LLM provider.
func (c Config) ProviderAPIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// IsDevLike reports whether missing optional infrastructure should degrade instead of failing.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid number %q, using %v", key, raw, def)
		return def
	}
	return val
}

// getEnvDuration accepts Go durations ("45s") or bare seconds ("45").
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "anthropic", "claude":
		return "anthropic"
	case "gemini", "google":
		return "gemini"
	case "none", "placeholder", "off":
		return "none"
	default:
		return "openai"
	}
}
