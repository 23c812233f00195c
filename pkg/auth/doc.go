// Package auth resolves login names to principals across tenant databases.
//
// Resolution has two phases. The directory maps the login name to its home
// tenant, which Resolver binds into the current tenant scope; the user row is
// then read through the connection router, which now points at that tenant.
// A name unknown to the directory yields ErrTenantNotFound. A name the
// directory knows but the tenant database does not yields ErrIntegrity, which
// operators must be able to tell apart from a plain miss.
//
//	resolver := auth.NewResolver(dirStore, auth.NewSQLUserStore(router))
//
//	p, err := resolver.Authenticate(r.Context(), username, password)
//	switch {
//	case errors.Is(err, auth.ErrTenantNotFound):
//		// 401 "user not found"
//	case errors.Is(err, auth.ErrIntegrity):
//		// 401 "account data inconsistency"
//	}
//
// Principals travel in the session through EncodePrincipal and
// DecodePrincipal. The stored form has no password; decoded principals carry
// ErasedPassword instead.
package auth
