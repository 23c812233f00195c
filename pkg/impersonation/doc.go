// Package impersonation lets a super admin act as another user for one request.
//
// Middleware reads the X-Impersonate-User header and binds the numeric target
// into a per-request Scope, independent of the tenant binding. The binding is
// released when the request ends, whatever the outcome.
//
// The requested target is only a request. It takes effect through
// EffectiveUserID, which asks the principal for the SUPER_ADMIN role on every
// call:
//
//	r.Use(tenant.Middleware(chain))
//	r.Use(impersonation.Middleware())
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		p := auth.MustPrincipal(r.Context())
//		userID := impersonation.EffectiveUserID(r.Context(), p)
//		// ...
//	}
//
// Non-numeric, zero or negative header values are ignored and the request
// proceeds unimpersonated.
package impersonation
