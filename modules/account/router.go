package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mountable is a service that exposes its own routes.
type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the account module.
// Each service is optional and will only be mounted if provided.
type RouterOptions struct {
	// Login serves /auth/login and /auth/logout.
	Login Mountable
	// Profile serves /me.
	Profile Mountable
}

// Router creates the account module router.
//
// Example:
//
//	login := account.NewLoginService(resolver, sessions)
//	profile := account.NewProfileService(userStore, router)
//
//	r := chi.NewRouter()
//	r.Mount("/", account.Router(account.RouterOptions{
//	    Login:   login,
//	    Profile: profile,
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Login != nil {
		r.Mount("/auth", opts.Login.Handle())
	}
	if opts.Profile != nil {
		r.Mount("/me", opts.Profile.Handle())
	}

	return r
}
