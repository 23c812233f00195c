package account

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/tenantkit/pkg/auth"
	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/handler"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

var (
	ErrUserNotFound        = handler.NewHTTPError(http.StatusUnauthorized, "user_not_found", "user not found")
	ErrAccountInconsistent = handler.NewHTTPError(http.StatusUnauthorized, "account_inconsistent", "account data inconsistency")
	ErrInvalidCredentials  = handler.NewHTTPError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	ErrTargetNotFound      = handler.NewHTTPError(http.StatusNotFound, "impersonation_target_not_found", "impersonated user not found")
	ErrTenantUnavailable   = handler.NewHTTPError(http.StatusServiceUnavailable, "tenant_unavailable", "tenant database unavailable")
	ErrTenantRequired      = handler.NewHTTPError(http.StatusBadRequest, "tenant_required", "tenant could not be resolved")
)

// MapError translates authentication and routing errors into HTTP errors.
// It is meant to be passed to handler.NewErrorHandler.
func MapError(err error) (handler.HTTPError, bool) {
	switch {
	case errors.Is(err, auth.ErrIntegrity):
		return ErrAccountInconsistent, true
	case errors.Is(err, auth.ErrTenantNotFound):
		return ErrUserNotFound, true
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrInvalidCredentials, true
	case errors.Is(err, auth.ErrUserNotFound):
		return ErrTargetNotFound, true
	case errors.Is(err, auth.ErrUnauthorized):
		return handler.ErrUnauthorized, true
	case errors.Is(err, auth.ErrForbidden):
		return handler.ErrForbidden, true
	case errors.Is(err, dbrouter.ErrPoolUnavailable):
		return ErrTenantUnavailable, true
	case errors.Is(err, tenant.ErrNoTenantInContext):
		return ErrTenantRequired, true
	}
	return handler.HTTPError{}, false
}
