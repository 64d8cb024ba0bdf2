package middleware

import (
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

// RequestLogger is a middleware that logs every operation once it has been handled.
func RequestLogger(logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		next(ctx)

		status := ctx.Status()
		if status == 0 {
			status = 200
		}

		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.URL().Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("clientIp", ClientIP(ctx)),
			zap.String("userAgent", ctx.Header("User-Agent")),
		}

		if status >= 500 {
			logger.Error("request failed", fields...)

			return
		}

		logger.Info("request handled", fields...)
	}
}

// ClientIP extracts the client IP from the request, considering proxies.
func ClientIP(ctx huma.Context) string {
	// X-Forwarded-For may carry a chain; the first entry is the original client.
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	addr := ctx.RemoteAddr()
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}

	return addr
}
