package tenant

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/tenantkit/internal/binding"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// Scope is the tenant binding of one unit of work.
type Scope = binding.Scope[string]

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// NewScope returns an empty tenant scope.
func NewScope() *Scope {
	return binding.New[string]()
}

// WithScope attaches a tenant scope to the context.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// ScopeFromContext returns the tenant scope attached to the context.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(contextKey{}).(*Scope)
	return s, ok && s != nil
}

// IDFromContext returns the tenant currently bound in the context's scope.
// The value is read on every call, so a rebind earlier in the same unit of
// work is visible immediately.
func IDFromContext(ctx context.Context) (string, bool) {
	s, ok := ScopeFromContext(ctx)
	if !ok {
		return "", false
	}
	return s.Get()
}

// Bind sets the tenant for the unit of work that owns ctx.
func Bind(ctx context.Context, id string) error {
	if !IsValidID(id) {
		return ErrInvalidIdentifier
	}
	s, ok := ScopeFromContext(ctx)
	if !ok {
		return ErrNoScope
	}
	return s.Set(id)
}

// Acquire opens a new scope bound to id and returns the derived context with
// its release function. Callers must defer release.
func Acquire(ctx context.Context, id string) (context.Context, func(), error) {
	if !IsValidID(id) {
		return ctx, func() {}, ErrInvalidIdentifier
	}
	s := NewScope()
	if err := s.Set(id); err != nil {
		return ctx, func() {}, err
	}
	return WithScope(ctx, s), s.Release, nil
}

// Inherit gives a child task its own scope seeded with the tenant currently
// bound in ctx. The child may rebind freely without touching the parent.
func Inherit(ctx context.Context) (context.Context, func()) {
	parent, _ := ScopeFromContext(ctx)
	var child *Scope
	if parent != nil {
		child = parent.Fork()
	} else {
		child = NewScope()
	}
	return WithScope(ctx, child), child.Release
}

// MustIDFromContext panics if no tenant is bound. Use only in handlers
// mounted behind RequireTenant.
func MustIDFromContext(ctx context.Context) string {
	id, ok := IDFromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return id
}

// LoggerExtractor returns a ContextExtractor for the logger that adds the bound tenant.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return logger.TenantID(id), true
		}
		return slog.Attr{}, false
	}
}
