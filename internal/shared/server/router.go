package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docrisk-backend/internal/shared/config"
	"docrisk-backend/internal/shared/metrics"
	"docrisk-backend/internal/shared/server/middleware"
	"docrisk-backend/internal/shared/server/respond"
	"docrisk-backend/internal/shared/storage/db"
)

// RouteRegistrar attaches a feature's routes to the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// GuardedRegistrar attaches routes that run extra middleware, such as the analyze rate limit.
type GuardedRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup, guard ...gin.HandlerFunc)
}

// RouterDeps defines the handlers and infrastructure the router mounts.
type RouterDeps struct {
	Config         config.Config
	DB             *sql.DB
	Analysis       GuardedRegistrar
	AnalyzeLimiter *middleware.RateLimiter
	Features       []RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", health(deps.DB))
	api := r.Group("/api/v1")
	api.GET("/health", health(deps.DB))
	api.GET("/metrics", metrics.Handler())

	secured := api.Group("", middleware.APIKey(deps.Config.APIKeys))
	if deps.Analysis != nil {
		var guard []gin.HandlerFunc
		if deps.AnalyzeLimiter != nil {
			guard = append(guard, middleware.RateLimit(deps.AnalyzeLimiter))
		}
		deps.Analysis.RegisterRoutes(secured, guard...)
	}
	for _, f := range deps.Features {
		if f != nil {
			f.RegisterRoutes(secured)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	return r
}

func health(sqlDB *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"ok": true, "database": "memory"}
		if sqlDB != nil {
			if err := db.Ping(c.Request.Context(), sqlDB, 2*time.Second); err != nil {
				respond.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable", nil)
				return
			}
			status["database"] = "ok"
		}
		respond.JSON(c, http.StatusOK, status)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
