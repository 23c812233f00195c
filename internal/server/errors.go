package server

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/tenantkit/modules/account"
	"github.com/dmitrymomot/tenantkit/pkg/async"
	"github.com/dmitrymomot/tenantkit/pkg/dbpool"
	"github.com/dmitrymomot/tenantkit/pkg/handler"
	"github.com/dmitrymomot/tenantkit/pkg/ratelimiter"
)

var (
	ErrReloadFailed  = handler.NewHTTPError(http.StatusBadGateway, "reload_failed", "tenant pools could not be reloaded")
	ErrJobsShutdown  = handler.NewHTTPError(http.StatusServiceUnavailable, "jobs_unavailable", "background jobs are not accepted")
	ErrRegistryShut  = handler.NewHTTPError(http.StatusServiceUnavailable, "registry_closed", "pool registry is closed")
	ErrTooManyLogins = handler.NewHTTPError(http.StatusTooManyRequests, "too_many_requests", "too many login attempts, try again later")
)

// mapError extends account.MapError with server-level failures.
func mapError(err error) (handler.HTTPError, bool) {
	if httpErr, ok := account.MapError(err); ok {
		return httpErr, true
	}
	switch {
	case errors.Is(err, ratelimiter.ErrLimited):
		return ErrTooManyLogins, true
	case errors.Is(err, dbpool.ErrRegistryClosed):
		return ErrRegistryShut, true
	case errors.Is(err, dbpool.ErrPoolBuild):
		return ErrReloadFailed, true
	case errors.Is(err, async.ErrPoolClosed):
		return ErrJobsShutdown, true
	}
	return handler.HTTPError{}, false
}
