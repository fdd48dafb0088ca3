package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"docrisk-backend/internal/shared/metrics"
	"docrisk-backend/internal/shared/server/respond"
	"docrisk-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope. If the handler already
// started the response, only the log line and the counter are written.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			metrics.IncPanic()
			telemetry.Error("http.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"panic":      fmt.Sprint(rec),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected server error", nil)
		}()
		c.Next()
	}
}
