// Package tenant decides which tenant a unit of work belongs to and carries
// that decision through the request.
//
// # Architecture
//
// The package is built around three concepts:
//
// 1. Scope - a per-request binding slot attached to context.Context
// 2. Resolvers - strategies that extract a tenant identifier from a request
// 3. Middleware - creates the scope, runs the resolvers, releases the scope
//
// Data access reads the binding through IDFromContext on every call, so a
// rebind made mid-request (for example by the login flow) is visible to all
// later calls in the same request.
//
// # Usage
//
//	import "github.com/dmitrymomot/tenantkit/pkg/tenant"
//
//	chain := tenant.NewDefaultChain(tenant.DefaultConfig(), usernameFromSession, directoryStore)
//	router.Use(tenant.Middleware(chain, tenant.WithLogger(log)))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		id, ok := tenant.IDFromContext(r.Context())
//		if !ok {
//			// unbound: data access uses the directory pool
//		}
//	}
//
// # Resolution order
//
// NewDefaultChain tries, in order:
//
//   - HeaderResolver: the X-Tenant-ID header; when present it wins outright
//   - QueryResolver: the tenantId request parameter
//   - SessionResolver: the session user's home tenant from the directory
//
// The session step is lenient: lookup misses and broken sessions are logged
// and skipped so anonymous and pre-login traffic is never blocked. A malformed
// header or parameter stops the chain and leaves the request unbound rather
// than falling through to a lower-priority source.
//
// # Background work
//
// Inherit gives a spawned task its own scope seeded with the current tenant.
// The child never writes back into the parent and keeps its tenant after the
// parent request has released its scope.
//
// # Error Handling
//
//   - ErrInvalidIdentifier: malformed tenant identifier
//   - ErrNoTenantInContext: RequireTenant found no binding
//   - ErrNoScope: Bind called on a context without a scope
//   - ErrTenantUnknown: directory has no tenant for the user
package tenant
