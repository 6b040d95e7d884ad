package middleware

import (
	"crypto/subtle"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/internal/ratelimit"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// BotKeyContextKey holds the authenticated bot key for the limiter
const BotKeyContextKey = "bot_key"

// BotAuthMiddleware requires "Authorization: Bearer <secret>". An empty
// secret disables the bot API.
func BotAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if secret == "" || !ok || subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
				prometheus.RecordBotRequest("", "unauthorized")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}
			c.Set(BotKeyContextKey, key)
			return next(c)
		}
	}
}

// BotRateLimitMiddleware applies the per-key request quota. Limiter errors
// let the request through.
func BotRateLimitMiddleware(limiter ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get(BotKeyContextKey).(string)
			res, err := limiter.Check(c.Request().Context(), key)
			if err != nil {
				logger.FromContext(c).Warn("Bot rate limiter unavailable", zap.Error(err))
				return next(c)
			}

			if !res.Allowed {
				retryAfter := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				h := c.Response().Header()
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("X-RateLimit-Remaining", "0")
				prometheus.RecordBotRequest("", "rate_limited")
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many requests", "retryAfter": retryAfter})
			}

			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			return next(c)
		}
	}
}
