package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func apiKeyRouter(keys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKey(keys))
	r.GET("/who", func(c *gin.Context) {
		c.String(http.StatusOK, ClientKeyFromContext(c))
	})
	return r
}

func TestAPIKeyDisabledWhenNoKeys(t *testing.T) {
	resp := httptest.NewRecorder()
	apiKeyRouter(nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/who", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.HasPrefix(resp.Body.String(), "ip:") {
		t.Fatalf("expected ip identity, got %q", resp.Body.String())
	}
}

func TestAPIKeyRejectsMissingAndWrongKey(t *testing.T) {
	r := apiKeyRouter([]string{"secret-1", "secret-2"})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/who", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: expected 401, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("X-API-Key", "nope")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: expected 401, got %d", resp.Code)
	}
}

func TestAPIKeyAcceptsConfiguredKey(t *testing.T) {
	r := apiKeyRouter([]string{"secret-1", "secret-2"})
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("X-API-Key", "secret-2")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.HasPrefix(body, "key:") || strings.Contains(body, "secret") {
		t.Fatalf("unexpected identity %q", body)
	}
}
