package impersonation

import "errors"

var (
	// ErrMalformedHeader is returned when the impersonation header is not a positive user id.
	ErrMalformedHeader = errors.New("impersonation: malformed target header")

	// ErrNoScope is returned when binding into a context without an impersonation scope.
	ErrNoScope = errors.New("impersonation: no binding scope in context")

	// ErrInvalidTarget is returned when binding a non-positive user id.
	ErrInvalidTarget = errors.New("impersonation: invalid target user id")
)
