package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantAllowed string
	}{
		{name: "preflight from app", allowed: []string{"http://localhost:5173"}, method: http.MethodOptions, origin: "http://localhost:5173", wantStatus: http.StatusNoContent, wantAllowed: "http://localhost:5173"},
		{name: "upload from app", allowed: []string{"http://localhost:5173/"}, method: http.MethodPost, origin: "http://localhost:5173", wantStatus: http.StatusOK, wantAllowed: "http://localhost:5173"},
		{name: "origin case folded", allowed: []string{"https://App.Example"}, method: http.MethodPost, origin: "https://app.example", wantStatus: http.StatusOK, wantAllowed: "https://app.example"},
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodPost, origin: "https://portal.fund", wantStatus: http.StatusOK, wantAllowed: "https://portal.fund"},
		{name: "unknown origin", allowed: []string{"http://localhost:5173"}, method: http.MethodPost, origin: "http://evil.example", wantStatus: http.StatusOK},
		{name: "unknown origin preflight", allowed: []string{"http://localhost:5173"}, method: http.MethodOptions, origin: "http://evil.example", wantStatus: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.allowed))
			router.POST("/api/v1/documents/analyze", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"ok": true})
			})
			router.OPTIONS("/api/v1/documents/analyze", func(c *gin.Context) {
				c.Status(http.StatusTeapot)
			})

			req := httptest.NewRequest(tt.method, "/api/v1/documents/analyze", nil)
			req.Header.Set("Origin", tt.origin)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.Code)
			}
			if got := resp.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowed {
				t.Fatalf("expected Allow-Origin %q, got %q", tt.wantAllowed, got)
			}
			if tt.wantAllowed != "" && resp.Header().Get("Access-Control-Allow-Headers") != corsAllowHeaders {
				t.Fatalf("expected Allow-Headers %q", corsAllowHeaders)
			}
			if resp.Header().Get("Vary") != "Origin" {
				t.Fatalf("expected Vary: Origin")
			}
		})
	}
}
