package directory

import "errors"

var (
	// ErrUserNotFound is returned when the login name has no global user record.
	ErrUserNotFound = errors.New("directory: user not found")

	// ErrQueryFailed wraps driver errors from directory queries.
	ErrQueryFailed = errors.New("directory: query failed")

	// ErrInvalidConfig is returned by TenantConfig.Validate for unusable rows.
	ErrInvalidConfig = errors.New("directory: invalid tenant datasource")

	// ErrSourceFile is returned when a datasource file cannot be read or parsed.
	ErrSourceFile = errors.New("directory: invalid datasource file")
)
