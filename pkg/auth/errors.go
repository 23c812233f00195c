package auth

import "errors"

var (
	// ErrTenantNotFound is returned when the directory has no record for the login name.
	ErrTenantNotFound = errors.New("user not found")

	// ErrIntegrity is returned when the directory maps a user to a tenant
	// whose database has no such user.
	ErrIntegrity = errors.New("account data inconsistency")

	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned by UserStore when the tenant database has no such user.
	ErrUserNotFound = errors.New("auth: user not found in tenant store")

	// ErrUnauthorized is returned when a request carries no principal.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the principal lacks a required role.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidPrincipal is returned when a stored principal cannot be decoded.
	ErrInvalidPrincipal = errors.New("auth: invalid stored principal")
)
