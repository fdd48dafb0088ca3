package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docrisk-backend/internal/shared/config"
	"docrisk-backend/internal/shared/server/middleware"
)

type stubAnalysis struct{}

func (stubAnalysis) RegisterRoutes(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	rg.POST("/documents/analyze", append(guard, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})...)
}

type stubFeature struct{}

func (stubFeature) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/runs", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"runs": []string{}}) })
}

func testRouter(keys []string) *gin.Engine {
	cfg := config.Defaults()
	cfg.APIKeys = keys
	limiter := middleware.NewRateLimiter(middleware.RateLimitRule{Rate: 0.001, Burst: 1}, time.Now)
	return NewRouter(RouterDeps{
		Config:         cfg,
		Analysis:       stubAnalysis{},
		AnalyzeLimiter: limiter,
		Features:       []RouteRegistrar{stubFeature{}},
	})
}

func TestHealthIsPublic(t *testing.T) {
	r := testRouter([]string{"secret"})
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"database":"memory"`) {
			t.Fatalf("%s: unexpected body %s", path, rec.Body.String())
		}
	}
}

func TestAPIKeyGuardsFeatureRoutes(t *testing.T) {
	r := testRouter([]string{"secret"})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rec.Code)
	}
}

func TestAnalyzeRouteIsRateLimited(t *testing.T) {
	r := testRouter(nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/documents/analyze", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/documents/analyze", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}

	// other routes share no bucket with analyze
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("runs: expected 200, got %d", rec.Code)
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	r := testRouter(nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"code":"NOT_FOUND"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := testRouter(nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "docrisk_analyses_started_total") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
