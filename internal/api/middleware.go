// middleware.go - Per-IP rate limiting for conversion routes
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token-bucket limiter per client IP. Conversion
// and OCR routes are the expensive ones; read-only routes stay unlimited.
type RateLimiter struct {
	limiters sync.Map
	every    time.Duration
	burst    int
}

// NewRateLimiter allows perMinute requests sustained with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 10
	}
	return &RateLimiter{
		every: time.Minute / time.Duration(perMinute),
		burst: burst,
	}
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	if v, ok := rl.limiters.Load(ip); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rate.Every(rl.every), rl.burst)
	actual, _ := rl.limiters.LoadOrStore(ip, limiter)
	return actual.(*rate.Limiter)
}

// Middleware rejects over-limit requests with 429 and a Retry-After hint.
func (rl *RateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !rl.get(c.RealIP()).Allow() {
			c.Response().Header().Set("Retry-After", "60")
			return &APIError{
				Status:  http.StatusTooManyRequests,
				Code:    "RATE_LIMIT",
				Message: "Rate limit exceeded",
			}
		}
		return next(c)
	}
}
