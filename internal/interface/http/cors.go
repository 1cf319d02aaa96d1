package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const corsMaxAge = 10 * 60

// corsMiddleware lets agency dashboards and the builder UI call the API.
// Webhook senders are server to server and never preflight.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	wildcard := len(allowed) == 0
	origins := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
		if origin == "*" {
			wildcard = true
			continue
		}
		origins[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		headers := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			headers.Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := origins[strings.ToLower(origin)]; ok {
				headers.Set("Access-Control-Allow-Origin", origin)
			}
			headers.Add("Vary", "Origin")
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		headers.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		headers.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
		c.AbortWithStatus(http.StatusNoContent)
	}
}
