package ratelimiter

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// KeyFunc extracts the rate limit key from a request. An empty key is not limited.
type KeyFunc func(r *http.Request) string

// ByRemoteIP keys requests by client address. Run it behind a proxy-aware
// middleware such as chi's RealIP.
func ByRemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ErrorHandler writes the response for a limited request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// LimitError is passed to the ErrorHandler when a key is out of tokens.
type LimitError struct {
	RetryAfter int // seconds
}

func (e LimitError) Error() string {
	return fmt.Sprintf("%s: retry after %ds", ErrLimited, e.RetryAfter)
}

func (e LimitError) Unwrap() error { return ErrLimited }

// Option configures Middleware.
type Option func(*middlewareConfig)

type middlewareConfig struct {
	errorHandler ErrorHandler
	logger       *slog.Logger
}

// WithErrorHandler overrides the plain-text 429 response.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *middlewareConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithLogger logs store failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware limits requests per key. Store failures let the request
// through so an unavailable backend never locks users out.
func Middleware(b *Bucket, keyFunc KeyFunc, opts ...Option) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := b.Allow(r.Context(), key)
			if err != nil {
				cfg.logger.WarnContext(r.Context(), "rate limit check failed",
					logger.Component("ratelimiter"), logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				retryAfter := max(1, int(result.RetryAfter().Seconds()+0.5))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				cfg.errorHandler(w, r, LimitError{RetryAfter: retryAfter})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
