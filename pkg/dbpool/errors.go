package dbpool

import "errors"

var (
	// ErrUnsupportedDriver is returned for datasource rows naming an unknown driver.
	ErrUnsupportedDriver = errors.New("dbpool: unsupported driver")

	// ErrPoolBuild wraps failures while building or reloading the registry.
	ErrPoolBuild = errors.New("dbpool: failed to build tenant pools")

	// ErrValidationFailed is returned when a freshly opened pool fails its validation query.
	ErrValidationFailed = errors.New("dbpool: validation query failed")

	// ErrDuplicateTenant is returned when the directory lists a tenant twice.
	ErrDuplicateTenant = errors.New("dbpool: duplicate tenant datasource")

	// ErrRegistryClosed is returned by Reload after Close.
	ErrRegistryClosed = errors.New("dbpool: registry closed")
)
