package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docrisk-backend/internal/shared/metrics"
	"docrisk-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	router := gin.New()
	router.Use(RequestID(), APIKey([]string{"k1"}), Logging())
	router.POST("/api/v1/documents/analyze", func(c *gin.Context) {
		c.Set("reportId", "report-1")
		c.Set("documentType", "safe")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/analyze", nil)
	req.Header.Set("X-API-Key", "k1")
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json %q: %v", last, err)
	}

	required := []string{"request_id", "method", "path", "status", "duration_ms", "client", "report_id", "document_type"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["message"] != "request.complete" {
		t.Fatalf("unexpected message: %v", payload["message"])
	}
	if payload["request_id"] != "req-123" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["report_id"] != "report-1" {
		t.Fatalf("unexpected report_id: %v", payload["report_id"])
	}
	if client, _ := payload["client"].(string); !strings.HasPrefix(client, "key:") {
		t.Fatalf("unexpected client: %v", payload["client"])
	}
	if resp.Header().Get("X-Request-Id") != "req-123" {
		t.Fatalf("expected request id echoed in header")
	}
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "INTERNAL_ERROR") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
	if !strings.Contains(buf.String(), `"http.panic"`) {
		t.Fatalf("expected panic log, got %s", buf.String())
	}
}

func TestRecoveryAfterWriteKeepsBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := telemetry.SetOutput(&bytes.Buffer{})
	defer restore()

	router := gin.New()
	router.Use(Recovery())
	router.GET("/half", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/half", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "partial" {
		t.Fatalf("expected untouched response, got %d %q", resp.Code, resp.Body.String())
	}
	if !strings.Contains(metrics.Render(), "docrisk_http_panics_total") {
		t.Fatalf("expected panic counter in metrics")
	}
}
