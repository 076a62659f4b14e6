package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger returns base annotated with the request's trace id, the
// caller identity and, on battle routes, the battle id.
func RequestLogger(c *gin.Context, base *zap.Logger) *zap.Logger {
	fields := []zap.Field{zap.String("trace_id", GetTraceID(c))}
	if id := GetIdentity(c); id != "" {
		fields = append(fields, zap.String("identity", id))
	}
	if battleID := c.Param("id"); battleID != "" {
		fields = append(fields, zap.String("battle_id", battleID))
	}
	return base.With(fields...)
}

// Logger logs each request once it finished. Client errors log at warn,
// server errors at error.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}
		if ce := RequestLogger(c, log).Check(level, "http"); ce != nil {
			ce.Write(
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("client_ip", c.ClientIP()),
			)
		}
	}
}
