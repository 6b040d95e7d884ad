package middleware

import (
	"net/http"
	"strings"

	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/pkg/jwtutil"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Echo context keys set by the JWT middlewares
const (
	ClaimsKey = "user"
	UserIDKey = "user_id"
	EmailKey  = "email"
)

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// JWTAuthMiddleware rejects requests without a valid session token
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No autenticado"})
			}

			tokenString, ok := BearerToken(authHeader)
			if !ok {
				log.Warn("Invalid authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No autenticado"})
			}

			claims, err := jwtUtil.ValidateToken(tokenString)
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Sesión inválida o expirada"})
			}

			setClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalJWTMiddleware attaches the session when a valid token is sent and
// otherwise lets the request through as a guest
func OptionalJWTMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tokenString, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
				if claims, err := jwtUtil.ValidateToken(tokenString); err == nil {
					setClaims(c, claims)
				} else {
					logger.FromContext(c).Debug("Ignoring invalid optional token", zap.Error(err))
				}
			}
			return next(c)
		}
	}
}

func setClaims(c echo.Context, claims *jwtutil.UserClaims) {
	c.Set(ClaimsKey, claims)
	c.Set(UserIDKey, claims.UserID)
	c.Set(EmailKey, claims.Email)
}

// UserID returns the authenticated profile id, or "" for guests
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}
