package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/tenantkit/modules/account"
	"github.com/dmitrymomot/tenantkit/pkg/async"
	"github.com/dmitrymomot/tenantkit/pkg/auth"
	"github.com/dmitrymomot/tenantkit/pkg/dbpool"
	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/handler"
	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
	"github.com/dmitrymomot/tenantkit/pkg/impersonation"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
	"github.com/dmitrymomot/tenantkit/pkg/ratelimiter"
	"github.com/dmitrymomot/tenantkit/pkg/requestid"
	"github.com/dmitrymomot/tenantkit/pkg/session"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// PoolAdmin is the part of the pool registry the admin endpoints use.
type PoolAdmin interface {
	Reload(ctx context.Context) (dbpool.Report, error)
	Snapshot() *dbpool.Snapshot
}

// JobSubmitter runs background work detached from the request.
type JobSubmitter interface {
	Submit(ctx context.Context, name string, fn func(context.Context) error) (*async.Future[struct{}], error)
}

// DirectoryCache is purged after a pool reload so moved users resolve again.
type DirectoryCache interface {
	Purge()
}

// UserStore is what the account module needs from the tenant user store.
type UserStore interface {
	account.UserFinder
}

// Deps are the collaborators the HTTP surface is built from.
// Metrics, Registerer, Gatherer, Cache and LoginLimiter are optional.
type Deps struct {
	Logger    *slog.Logger
	Sessions  *session.Manager
	Directory tenant.DirectoryLookup
	Cache     DirectoryCache
	Auth      account.Authenticator
	Users     UserStore
	Router    *dbrouter.Router
	Pools     PoolAdmin
	Jobs      JobSubmitter
	// LoginLimiter throttles POST /auth/login per client address.
	LoginLimiter *ratelimiter.Bucket
	Metrics      *metrics.Recorder
	Registerer   prometheus.Registerer
	Gatherer     prometheus.Gatherer
	Checks       []httpserver.Check
}

// Server wires the tenant, impersonation and session middleware around the
// account, export and admin endpoints.
type Server struct {
	cfg          Config
	deps         Deps
	logger       *slog.Logger
	errorHandler handler.ErrorHandler
}

// New creates a server. Sessions, Directory, Auth, Users, Router, Pools and
// Jobs are required.
func New(cfg Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		cfg:          cfg,
		deps:         deps,
		logger:       log,
		errorHandler: handler.NewErrorHandler(log, mapError),
	}
}

// Routes builds the HTTP handler. Middleware order matters: the tenant
// resolver reads the session, and impersonation and principal loading run
// inside the tenant scope.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", s.cfg.Tenant.Header, s.cfg.Impersonation.Header},
			ExposedHeaders:   []string{requestid.Header},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if s.deps.Registerer != nil {
		r.Use(metrics.Middleware(s.deps.Registerer, s.cfg.MetricsNamespace))
	}
	r.Use(s.deps.Sessions.Middleware)
	r.Use(tenant.Middleware(s.tenantResolver(),
		tenant.WithSkipPaths(s.cfg.SkipTenantPaths),
		tenant.WithLogger(s.logger),
	))
	r.Use(impersonation.Middleware(
		impersonation.WithHeader(s.cfg.Impersonation.Header),
		impersonation.WithLogger(s.logger),
	))
	r.Use(auth.LoadPrincipal(s.logger))

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(s.logger, s.cfg.ReadinessTimeout, s.readinessChecks()...))
	if s.deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.deps.Gatherer))
	}

	accountOpts := []account.Option{account.WithLogger(s.logger), account.WithErrorHandler(s.errorHandler)}
	if s.deps.Metrics != nil {
		accountOpts = append(accountOpts, account.WithObserver(s.deps.Metrics))
	}
	loginOpts := accountOpts
	if s.deps.LoginLimiter != nil {
		loginOpts = append(loginOpts, account.WithLoginMiddleware(ratelimiter.Middleware(
			s.deps.LoginLimiter, ratelimiter.ByRemoteIP,
			ratelimiter.WithErrorHandler(s.httpError),
			ratelimiter.WithLogger(s.logger),
		)))
	}
	r.Mount("/auth", account.NewLoginService(s.deps.Auth, s.deps.Sessions, loginOpts...).Handle())
	r.Mount("/me", account.NewProfileService(s.deps.Users, s.deps.Router, accountOpts...).Handle())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePrincipal(s.httpError))
		r.Use(tenant.RequireTenant(s.httpError))
		r.Post("/exports", handler.Wrap(s.createExport,
			handler.WithErrorHandler[struct{}](s.errorHandler),
		))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePrincipal(s.httpError))
		r.Use(auth.RequireRole(auth.RoleSuperAdmin, s.httpError))
		r.Post("/admin/pools/reload", handler.Wrap(s.reloadPools,
			handler.WithErrorHandler[struct{}](s.errorHandler),
		))
	})

	return r
}

func (s *Server) tenantResolver() tenant.Resolver {
	chain := tenant.NewDefaultChain(s.cfg.Tenant, s.deps.Sessions.Username, s.deps.Directory)
	chain.Logger = s.logger
	if s.deps.Metrics != nil {
		chain.Observer = s.deps.Metrics
	}
	return chain
}

func (s *Server) readinessChecks() []httpserver.Check {
	checks := append([]httpserver.Check{}, s.deps.Checks...)
	return append(checks, httpserver.Check{
		Name: "tenant_pools",
		Fn: func(context.Context) error {
			if s.deps.Pools.Snapshot().Len() == 0 {
				return errNoPools
			}
			return nil
		},
	})
}

var errNoPools = errors.New("no tenant pools loaded")

func (s *Server) httpError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorHandler(handler.NewContext(w, r), err)
}
