package respond

import (
	"github.com/gin-gonic/gin"

	"docrisk-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response and aborts the chain. Client errors
// log at warn, server errors at error.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":        status,
		"code":          code,
		"error_message": message,
		"path":          c.Request.URL.Path,
		"method":        c.Request.Method,
		"request_id":    c.GetString("requestId"),
	}
	if client := c.GetString("clientKey"); client != "" {
		fields["client"] = client
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
