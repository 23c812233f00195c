package impersonation

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// Option configures the middleware.
type Option func(*options)

type options struct {
	header string
	logger *slog.Logger
}

// WithHeader overrides the header carrying the target user id.
func WithHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.header = name
		}
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Middleware installs the impersonation target named by the request header.
// It must run after the tenant middleware. The scope is released when the
// handler chain returns, panics included. Malformed values are ignored.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	o := &options{
		header: DefaultHeader,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := NewScope()
			defer scope.Release()

			ctx := WithScope(r.Context(), scope)
			r = r.WithContext(ctx)

			target, err := ParseTarget(r.Header.Get(o.header))
			switch {
			case err != nil:
				o.logger.DebugContext(ctx, "ignoring impersonation header", logger.Error(err))
			case target > 0:
				if err := scope.Set(target); err != nil {
					o.logger.ErrorContext(ctx, "failed to bind impersonation target", logger.Error(err))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ParseTarget parses a header value into a user id.
// An empty value yields 0 and no error.
func ParseTarget(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedHeader, value)
	}
	return id, nil
}
