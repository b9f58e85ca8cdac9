package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Admitter decides whether a client may issue another request.
type Admitter interface {
	Admit(clientID string) bool
}

// RateLimitConfig holds RateLimit configuration.
type RateLimitConfig struct {
	// Window is advertised in Retry-After when a request is rejected.
	Window time.Duration
	// PathPrefix limits enforcement to matching paths. Empty means all.
	PathPrefix string
	// OnReject is called once per rejected request.
	OnReject func(c echo.Context)
}

// RateLimit rejects requests with 429 once the client's IP is out of budget.
func RateLimit(limiter Admitter, cfg RateLimitConfig) echo.MiddlewareFunc {
	retryAfter := strconv.Itoa(int(cfg.Window.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.PathPrefix != "" && !strings.HasPrefix(c.Request().URL.Path, cfg.PathPrefix) {
				return next(c)
			}
			if limiter.Admit(c.RealIP()) {
				return next(c)
			}

			if cfg.OnReject != nil {
				cfg.OnReject(c)
			}
			if cfg.Window > 0 {
				c.Response().Header().Set("Retry-After", retryAfter)
			}
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error":   http.StatusText(http.StatusTooManyRequests),
				"message": "rate limit exceeded, retry later",
			})
		}
	}
}
