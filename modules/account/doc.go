// Package account serves the login, logout and profile endpoints.
//
// Login runs two-phase authentication: the directory names the tenant that
// owns the username, the tenant is bound for the rest of the request, and the
// user row and password are checked in that tenant's database. On success the
// principal is stored in a fresh session whose token is returned in the body
// and as a cookie.
//
// GET /me reports the principal, the effective user id (the impersonation
// target for super admins sending X-Impersonate-User) and the pool the request
// is routed to.
//
//	svc := account.NewLoginService(resolver, sessions, account.WithObserver(recorder))
//	profile := account.NewProfileService(userStore, router)
//	r.Mount("/", account.Router(account.RouterOptions{Login: svc, Profile: profile}))
package account
