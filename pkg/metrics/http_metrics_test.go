package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsRequests(t *testing.T) {
	m := NewHTTPMetrics("aoe-test")
	NewHTTPMetrics("aoe-test") // second call must not panic on registration

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusTeapot, "x") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	got := testutil.ToFloat64(RequestCounter.WithLabelValues("aoe-test", http.MethodGet, "/ping", "418"))
	assert.Equal(t, float64(1), got)
	assert.Equal(t, float64(1), testutil.ToFloat64(StatusCodeCategoryCounter.WithLabelValues("aoe-test", "4xx", http.MethodGet, "/ping")))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(204))
	assert.Equal(t, "3xx", statusCategory(302))
	assert.Equal(t, "5xx", statusCategory(503))
	assert.Equal(t, "", statusCategory(101))
}
