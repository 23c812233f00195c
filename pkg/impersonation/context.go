package impersonation

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/tenantkit/internal/binding"
)

// SuperAdminRole is the only role allowed to act as another user.
const SuperAdminRole = "SUPER_ADMIN"

// Scope is the impersonation binding of one unit of work.
type Scope = binding.Scope[int64]

type contextKey struct{}

// NewScope returns an empty impersonation scope.
func NewScope() *Scope {
	return binding.New[int64]()
}

// WithScope attaches an impersonation scope to the context.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// ScopeFromContext returns the impersonation scope attached to the context.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(contextKey{}).(*Scope)
	return s, ok && s != nil
}

// Bind sets the impersonation target for the unit of work that owns ctx.
func Bind(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidTarget
	}
	s, ok := ScopeFromContext(ctx)
	if !ok {
		return ErrNoScope
	}
	return s.Set(userID)
}

// TargetFromContext returns the raw requested target, without any role check.
// Use EffectiveUserID for authorization decisions.
func TargetFromContext(ctx context.Context) (int64, bool) {
	s, ok := ScopeFromContext(ctx)
	if !ok {
		return 0, false
	}
	return s.Get()
}

// Principal is the authenticated caller as seen by impersonation checks.
type Principal interface {
	ID() int64
	HasRole(role string) bool
}

// Active reports whether an impersonation target is in effect for p.
// The role is asked of p on every call.
func Active(ctx context.Context, p Principal) (int64, bool) {
	if p == nil || !p.HasRole(SuperAdminRole) {
		return 0, false
	}
	return TargetFromContext(ctx)
}

// EffectiveUserID returns the user id downstream logic should act as:
// the impersonation target when p is a super admin, otherwise p's own id.
func EffectiveUserID(ctx context.Context, p Principal) int64 {
	if target, ok := Active(ctx, p); ok {
		return target
	}
	if p == nil {
		return 0
	}
	return p.ID()
}

// Inherit gives a child task its own scope seeded with the current target.
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

// LoggerExtractor returns a ContextExtractor for the logger that adds the requested target.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := TargetFromContext(ctx); ok {
			return slog.Int64("impersonated_user_id", id), true
		}
		return slog.Attr{}, false
	}
}
