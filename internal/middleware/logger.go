package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gymsync/internal/models"
)

// Logger writes one line per request. Health probes are logged at debug so
// they do not drown out account traffic.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		case strings.HasSuffix(c.Request.URL.Path, "/healthz"):
			event = log.Debug()
		}

		if account, ok := CurrentAccount(c); ok {
			event = event.Str("account_id", account.ID).Str("role", string(account.Role))
		} else if role, ok := c.Get(GuardRoleKey); ok {
			if r, _ := role.(models.Role); r != "" {
				event = event.Str("role", string(r))
			}
		}
		if route := c.FullPath(); route != "" {
			event = event.Str("route", route)
		}
		if location := c.Writer.Header().Get("Location"); location != "" {
			event = event.Str("redirect", location)
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", latency).
			Str("request_id", c.Writer.Header().Get(requestIDHeader)).
			Msg("http request")
	}
}
