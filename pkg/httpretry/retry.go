// Package httpretry retries outbound HTTP calls on throttling and server
// errors with exponential backoff and jitter.
package httpretry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Config configures retry behavior
type Config struct {
	// MaxAttempts counts the first try
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// Jitter adds randomness to backoff (0.0 to 1.0)
	Jitter               float64
	RetryableStatusCodes []int
}

// DefaultConfig retries 429 and 5xx up to three attempts in total
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialBackoff:    300 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// Doer is satisfied by *http.Client
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Do sends the request built by newRequest, rebuilding it for every attempt
// so bodies can be replayed. The last response is returned as is, even when
// its status was retryable, so callers can read the error body.
func Do(ctx context.Context, client Doer, cfg Config, newRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.backoff(attempt - 1)):
			}
		}

		req, err := newRequest(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if retryableError(err) && attempt < cfg.MaxAttempts {
				continue
			}
			return nil, err
		}

		if cfg.retryableStatus(resp.StatusCode) && attempt < cfg.MaxAttempts {
			resp.Body.Close()
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func (c Config) backoff(retry int) time.Duration {
	backoff := float64(c.InitialBackoff) * math.Pow(c.BackoffMultiplier, float64(retry-1))
	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}
	if c.Jitter > 0 {
		backoff += backoff * c.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(backoff)
}

func (c Config) retryableStatus(code int) bool {
	for _, retryable := range c.RetryableStatusCodes {
		if code == retryable {
			return true
		}
	}
	return false
}

func retryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
