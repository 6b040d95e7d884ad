package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults for the public form endpoints: a burst of 10 then one request
// every 6 seconds per client IP
const (
	DefaultIPRate  = rate.Limit(1.0 / 6)
	DefaultIPBurst = 10
	visitorTTL     = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	if r <= 0 {
		r = DefaultIPRate
	}
	if burst <= 0 {
		burst = DefaultIPBurst
	}
	return &IPRateLimiter{visitors: make(map[string]*visitor), rate: r, burst: burst, now: time.Now}
}

// Allow takes a token from ip's bucket
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Cleanup forgets clients idle for longer than the visitor TTL
func (l *IPRateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-visitorTTL)
	removed := 0
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
			removed++
		}
	}
	return removed
}

// Middleware answers 429 once the client's bucket is empty
func (l *IPRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !l.Allow(ip) {
				logger.FromContext(c).Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Path()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(l.rate)))))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Demasiadas solicitudes, intenta de nuevo en unos minutos"})
			}
			return next(c)
		}
	}
}
