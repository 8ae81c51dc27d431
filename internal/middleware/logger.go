package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/guttosm/avpulse/internal/logger"
)

// RequestLogger is a Gin middleware that logs one structured line per request.
//
// Behavior:
//   - Logs method, path, symbol/interval query values, status, latency and request_id.
//   - Level follows the status: info for 2xx/3xx, warn for 4xx, error for 5xx.
//   - Errors attached with c.Error are logged as "errors".
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
//
// Example log output:
//
//	{"level":"info","component":"http","request_id":"123e4567-...","method":"GET","path":"/api/v1/analysis","symbol":"IBM","status":200,"latency_ms":412,"message":"http_request"}
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		log := logger.Component("http")
		ev := levelFor(&log, status).
			Str("request_id", RequestIDFrom(c)).
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Int64("latency_ms", latency.Milliseconds()).
			Str("client_ip", c.ClientIP())
		if s := c.Query("symbol"); s != "" {
			ev = ev.Str("symbol", s)
		}
		if iv := c.Query("interval"); iv != "" {
			ev = ev.Str("interval", iv)
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Msg("http_request")
	}
}

func levelFor(l *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return l.Error()
	case status >= 400:
		return l.Warn()
	default:
		return l.Info()
	}
}
