package auth

import (
	"slices"

	"github.com/dmitrymomot/tenantkit/pkg/impersonation"
)

// Roles known to the service.
const (
	RoleSuperAdmin = impersonation.SuperAdminRole
	RoleAdmin      = "ADMIN"
	RoleUser       = "USER"
)

// ErasedPassword replaces the password hash of principals read back from a session.
const ErasedPassword = "[PROTECTED]"

// Principal is an authenticated user of one tenant.
type Principal struct {
	UserID       int64
	Username     string
	PasswordHash string
	Role         string
	Authorities  []string
	TenantID     string
}

// ID implements impersonation.Principal.
func (p *Principal) ID() int64 {
	if p == nil {
		return 0
	}
	return p.UserID
}

// HasRole reports whether the principal holds role, either as its primary
// role or as a granted authority.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return p.Role == role || slices.Contains(p.Authorities, role)
}

// IsSuperAdmin reports whether the principal may impersonate other users.
func (p *Principal) IsSuperAdmin() bool {
	return p.HasRole(RoleSuperAdmin)
}
