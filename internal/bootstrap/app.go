package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"docrisk-backend/internal/analysis"
	"docrisk-backend/internal/audit"
	"docrisk-backend/internal/risk"
	"docrisk-backend/internal/shared/config"
	"docrisk-backend/internal/shared/server"
	"docrisk-backend/internal/shared/server/middleware"
	"docrisk-backend/internal/shared/storage/db"
	"docrisk-backend/internal/shared/storage/object"
	localstore "docrisk-backend/internal/shared/storage/object/local"
	s3store "docrisk-backend/internal/shared/storage/object/s3"
	"docrisk-backend/internal/shared/telemetry"
	"docrisk-backend/internal/uploads"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	LLM             LLM
	Pipeline        *analysis.Pipeline
	AuditRepo       audit.Repo
	AnalysisHandler *analysis.Handler
	AuditHandler    *audit.Handler
	UploadsHandler  *uploads.Handler
}

// Build prepares dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	presign, err := buildPresign(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmStack, err := BuildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pipeline, err := BuildPipeline(cfg, llmStack)
	if err != nil {
		return nil, err
	}

	var auditRepo audit.Repo
	if sqlDB != nil {
		auditRepo = &audit.PGRepo{DB: sqlDB}
	} else {
		auditRepo = audit.NewMemoryRepo(audit.MaxRecent)
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		LLM:       llmStack,
		Pipeline:  pipeline,
		AuditRepo: auditRepo,
		AnalysisHandler: &analysis.Handler{
			Pipeline:       pipeline,
			Store:          store,
			Audit:          auditRepo,
			MaxUploadBytes: cfg.MaxUploadBytes,
			Provider:       llmStack.Provider,
			Model:          llmStack.Model,
		},
		AuditHandler: &audit.Handler{Repo: auditRepo},
		UploadsHandler: &uploads.Handler{
			Store:          store,
			Presign:        presign,
			Bucket:         cfg.S3Bucket,
			KeyPrefix:      cfg.S3Prefix,
			Namespace:      cfg.UploadsPrefix,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
	}

	var limiter *middleware.RateLimiter
	if cfg.AnalyzeRateLimitRPS > 0 && cfg.AnalyzeRateLimitBurst > 0 {
		limiter = middleware.NewRateLimiter(middleware.RateLimitRule{
			Rate:  cfg.AnalyzeRateLimitRPS,
			Burst: cfg.AnalyzeRateLimitBurst,
		}, time.Now)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		DB:             sqlDB,
		Analysis:       app.AnalysisHandler,
		AnalyzeLimiter: limiter,
		Features:       []server.RouteRegistrar{app.AuditHandler, app.UploadsHandler},
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"provider":     llmStack.Provider,
		"model":        llmStack.Model,
		"object_store": cfg.ObjectStoreType,
		"database":     sqlDB != nil,
		"api_keys":     len(cfg.APIKeys),
	})
	return app, nil
}

// BuildPipeline loads the aggregation policy and wires the LLM-backed stages.
// The classifier gets the non-retrying client because the pipeline retries
// classification itself.
func BuildPipeline(cfg config.Config, l LLM) (*analysis.Pipeline, error) {
	policy, err := risk.LoadPolicy(cfg.RiskPolicyFile)
	if err != nil {
		return nil, err
	}
	return analysis.NewPipeline(
		analysis.LLMClassifier{LLM: l.Stack.Limited, MaxChars: cfg.ClassifyMaxChars},
		analysis.LLMClauseExtractor{LLM: l.Stack.Retrying},
		analysis.LLMClauseScorer{LLM: l.Stack.Retrying},
		analysis.Options{
			ChunkMaxChars:       cfg.ChunkMaxChars,
			ClassifyMaxAttempts: cfg.ClassifyMaxAttempts,
			MaxClauses:          cfg.MaxClauses,
			MaxConcurrency:      cfg.MaxConcurrency,
			AnalysisTimeout:     cfg.AnalysisTimeout,
			Policy:              policy,
		},
	), nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Info("bootstrap.database_disabled", map[string]any{"reason": "DATABASE_URL empty; run history stays in memory"})
		return nil, nil
	}

	profile := db.ServerOptions()
	if cfg.LambdaRuntime {
		profile = db.LambdaOptions()
	}
	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, DBOptions(cfg, profile))
	if err == nil {
		if err = db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.database_fallback", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, fmt.Errorf("database: %w", err)
	}
	return sqlDB, nil
}

// DBOptions layers the configured pool overrides onto profile.
func DBOptions(cfg config.Config, profile db.Options) db.Options {
	return profile.With(db.Options{
		MaxOpenConns:    cfg.DBPool.MaxOpenConns,
		MaxIdleConns:    cfg.DBPool.MaxIdleConns,
		ConnMaxLifetime: cfg.DBPool.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBPool.ConnMaxIdleTime,
		PingTimeout:     cfg.DBPool.PingTimeout,
	})
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildPresign returns nil unless documents are stored in S3.
func buildPresign(ctx context.Context, cfg config.Config) (*s3.PresignClient, error) {
	if cfg.ObjectStoreType != "s3" {
		return nil, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewPresignClient(s3.NewFromConfig(awsCfg)), nil
}
