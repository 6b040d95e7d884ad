package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger_WithFileSink(t *testing.T) {
	file := filepath.Join(t.TempDir(), "aoe.log")

	err := InitLogger(&LogConfig{
		Level:       "debug",
		Environment: "production",
		ServiceName: "aoe-api",
		File:        file,
		MaxSizeMB:   1,
	})
	require.NoError(t, err)

	GetLogger().Info("file sink check")
	_ = GetLogger().Sync()

	assert.FileExists(t, file)
}

func TestMiddleware_SetsRequestLogger(t *testing.T) {
	require.NoError(t, InitLogger(&LogConfig{Level: "error", Environment: "development", ServiceName: "test"}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(RequestIDKey, "req-1")

	var fromEcho, fromCtx *zap.Logger
	handler := Middleware()(func(c echo.Context) error {
		fromEcho = FromContext(c)
		fromCtx = FromCtx(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.NotNil(t, fromEcho)
	assert.Same(t, fromEcho, fromCtx)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFromCtx_FallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, FromCtx(context.Background()))
}
