package tenant

import "errors"

var (
	// ErrInvalidIdentifier is returned when a tenant identifier fails validation.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrNoTenantInContext is returned when a route requires a bound tenant.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrNoScope is returned when binding into a context without a tenant scope.
	ErrNoScope = errors.New("tenant: no binding scope in context")

	// ErrTenantUnknown is returned by directory lookups that have no mapping for a user.
	ErrTenantUnknown = errors.New("tenant: no tenant for user")
)
