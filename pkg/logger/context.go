package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDKey is both the header name and the echo context key for the request id
const RequestIDKey = "X-Request-ID"

type contextKey string

const loggerKey contextKey = "logger"

// FromContext retrieves the request logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	if logger, ok := c.Get("logger").(*zap.Logger); ok {
		return logger
	}
	if requestID, ok := c.Get(RequestIDKey).(string); ok && requestID != "" {
		return GetLogger().With(zap.String("request_id", requestID))
	}
	return GetLogger()
}

// FromCtx retrieves the logger from a standard context
func FromCtx(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return GetLogger()
	}
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return GetLogger()
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}
