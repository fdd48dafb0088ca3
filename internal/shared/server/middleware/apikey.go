package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docrisk-backend/internal/shared/server/respond"
	"docrisk-backend/internal/shared/util"
)

const clientKeyKey = "clientKey"

// APIKey requires a matching X-API-Key header when keys is non-empty. The
// caller identity is stored as a hash of the key, never the key itself.
func APIKey(keys []string) gin.HandlerFunc {
	var allowed [][]byte
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		presented := []byte(strings.TrimSpace(c.GetHeader("X-API-Key")))
		if len(presented) == 0 {
			respond.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing API key", nil)
			return
		}
		matched := false
		for _, k := range allowed {
			if subtle.ConstantTimeCompare(presented, k) == 1 {
				matched = true
			}
		}
		if !matched {
			respond.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key", nil)
			return
		}
		c.Set(clientKeyKey, "key:"+util.ShortHash(string(presented)))
		c.Next()
	}
}

// ClientKeyFromContext returns the API key identity, or "ip:<addr>" when none was presented.
func ClientKeyFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v := c.GetString(clientKeyKey); v != "" {
		return v
	}
	return "ip:" + c.ClientIP()
}
