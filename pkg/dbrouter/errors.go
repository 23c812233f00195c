package dbrouter

import "errors"

// ErrPoolUnavailable is returned when the selected pool cannot produce a
// connection. It is never retried by the router.
var ErrPoolUnavailable = errors.New("dbrouter: connection pool unavailable")
