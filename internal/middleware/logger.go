package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger middleware logs HTTP requests. Websocket streams are logged once
// they close, with the connection's lifetime as latency.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if path == "/health" {
			return
		}
		if raw != "" {
			path = path + "?" + raw
		}

		kind := "http"
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			kind = "ws"
		}

		log.Printf("[%s] %s %s %s %d %v %s",
			kind,
			c.Request.Method,
			path,
			c.ClientIP(),
			c.Writer.Status(),
			time.Since(start),
			c.Errors.String(),
		)
	}
}
