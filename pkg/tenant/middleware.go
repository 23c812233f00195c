package tenant

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// ErrorHandler writes the response when RequireTenant rejects a request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	skipPaths []string
	logger    *slog.Logger
}

// Option configures Middleware.
type Option func(*middlewareConfig)

// WithSkipPaths lists paths that are not resolved, such as probes. A path
// matches itself and anything below it ("/metrics" skips "/metrics/x" but
// not "/metricsx"). Those requests still get an empty scope.
func WithSkipPaths(paths []string) Option {
	return func(c *middlewareConfig) { c.skipPaths = paths }
}

// WithLogger logs resolution failures at debug level. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func (c *middlewareConfig) skips(path string) bool {
	for _, skip := range c.skipPaths {
		skip = strings.TrimSuffix(skip, "/")
		if skip == "" {
			continue
		}
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

// Middleware resolves the tenant for each request and binds it into a fresh
// scope attached to the request context.
//
// The scope is released when the handler chain returns, including when a
// downstream handler panics, so nothing bound for this request survives it.
// Resolution errors never fail the request: it proceeds unbound and data
// access falls back to the directory pool.
func Middleware(resolver Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := NewScope()
			defer scope.Release()

			ctx := WithScope(r.Context(), scope)
			r = r.WithContext(ctx)

			if cfg.skips(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolver.Resolve(r)
			switch {
			case err != nil:
				cfg.logger.DebugContext(ctx, "tenant resolution failed, continuing unbound",
					logger.Error(err))
			case id != "":
				if err := scope.Set(id); err != nil {
					cfg.logger.ErrorContext(ctx, "failed to bind tenant", logger.TenantID(id), logger.Error(err))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant rejects requests with no bound tenant with ErrNoTenantInContext.
// A nil errorHandler answers 400.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "tenant required", http.StatusBadRequest)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IDFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
