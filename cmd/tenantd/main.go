// Command tenantd serves the tenant-routed HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/tenantkit/internal/server"
	"github.com/dmitrymomot/tenantkit/pkg/async"
	"github.com/dmitrymomot/tenantkit/pkg/auth"
	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/dbpool"
	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/directory"
	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
	"github.com/dmitrymomot/tenantkit/pkg/impersonation"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/ratelimiter"
	"github.com/dmitrymomot/tenantkit/pkg/redis"
	"github.com/dmitrymomot/tenantkit/pkg/requestid"
	"github.com/dmitrymomot/tenantkit/pkg/session"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"tenantd"`

	// TenantsFile replaces the tenant_datasources table with a YAML file.
	TenantsFile        string        `env:"TENANTS_FILE"`
	DirectoryCacheSize int           `env:"DIRECTORY_CACHE_SIZE" envDefault:"10000"`
	DirectoryCacheTTL  time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"1m"`

	JobWorkers         int64         `env:"JOB_WORKERS" envDefault:"8"`
	JobShutdownTimeout time.Duration `env:"JOB_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Log       logger.Config
	Directory pg.Config
	Redis     redis.Config
	Session   session.Config
	LoginRate ratelimiter.Config
	Pools     dbpool.Config
	HTTP      httpserver.Config
	Server    server.Config
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithConfig(cfg.Log),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
			impersonation.LoggerExtractor(),
			auth.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	directoryDB, err := pg.OpenDB(ctx, cfg.Directory)
	if err != nil {
		return fmt.Errorf("connect directory: %w", err)
	}
	defer directoryDB.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(reg, cfg.Server.MetricsNamespace)

	dir := directory.NewCachedStore(directory.NewSQLStore(directoryDB),
		cfg.DirectoryCacheSize, cfg.DirectoryCacheTTL,
		directory.WithCacheObserver(recorder),
	)
	var source dbpool.TenantSource = dir
	if cfg.TenantsFile != "" {
		source = directory.NewFileSource(cfg.TenantsFile)
	}

	registry, report, err := dbpool.Build(ctx, directoryDB, source, dbpool.DefaultOpener(),
		dbpool.WithConfig(cfg.Pools),
		dbpool.WithLogger(log),
		dbpool.WithObserver(recorder),
	)
	if err != nil {
		return fmt.Errorf("build tenant pools: %w", err)
	}
	defer registry.Close()
	for id, ferr := range report.Failed {
		log.WarnContext(ctx, "tenant pool unavailable at startup", logger.TenantID(id), logger.Error(ferr))
	}
	reg.MustRegister(metrics.NewPoolStatsCollector(cfg.Server.MetricsNamespace, registry.Stats))

	router := dbrouter.New(registry, dbrouter.WithObserver(recorder))
	users := auth.NewSQLUserStore(router)

	checks := []httpserver.Check{{Name: "directory", Fn: pg.Healthcheck(directoryDB)}}
	st, err := newStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()
	checks = append(checks, st.checks...)

	jobs := async.NewPool(cfg.JobWorkers, async.WithLogger(log))

	srv := server.New(cfg.Server, server.Deps{
		Logger:       log,
		Sessions:     st.sessions,
		Directory:    dir,
		Cache:        dir,
		Auth:         auth.NewResolver(dir, users, auth.WithLogger(log)),
		Users:        users,
		Router:       router,
		Pools:        registry,
		Jobs:         jobs,
		Metrics:      recorder,
		LoginLimiter: st.limiter,
		Registerer:   reg,
		Gatherer:     reg,
		Checks:       checks,
	})

	httpSrv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithBackground("pool-reload", func(ctx context.Context) error {
			registry.Run(ctx, cfg.Pools.ReloadInterval)
			return nil
		}),
		httpserver.WithStopHook(func(ctx context.Context) {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.JobShutdownTimeout)
			defer cancel()
			if err := jobs.Close(ctx); err != nil {
				log.WarnContext(ctx, "background jobs still running at shutdown", logger.Error(err))
			}
		}),
	)

	log.InfoContext(ctx, "starting tenantd",
		slog.Int("tenants", registry.Snapshot().Len()),
		slog.String("session_backend", cfg.Session.Backend),
	)
	return httpSrv.Run(ctx, srv.Routes())
}

// stores holds the session manager and login throttle for the configured
// backend. With "redis" both share one client.
type stores struct {
	sessions *session.Manager
	limiter  *ratelimiter.Bucket
	checks   []httpserver.Check
	closers  []func() error
}

func newStores(ctx context.Context, cfg appConfig) (*stores, error) {
	st := &stores{}
	var (
		sessionOpts []session.Option
		limitStore  ratelimiter.Store
	)

	switch cfg.Session.Backend {
	case "", "memory":
		ms := ratelimiter.NewMemoryStore()
		st.closers = append(st.closers, ms.Close)
		limitStore = ms
	case "redis":
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		st.closers = append(st.closers, client.Close)
		st.checks = append(st.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		sessionOpts = append(sessionOpts, session.WithStore(session.NewRedisStore(client, cfg.Redis.KeyPrefix)))
		limitStore = ratelimiter.NewRedisStore(client, cfg.Redis.KeyPrefix)
	default:
		return nil, fmt.Errorf("%w: session backend %q", errUnknownBackend, cfg.Session.Backend)
	}

	limiter, err := ratelimiter.NewBucket(limitStore, cfg.LoginRate)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("login rate limit: %w", err)
	}
	st.limiter = limiter

	st.sessions = session.NewFromConfig(cfg.Session, sessionOpts...)
	st.closers = append([]func() error{st.sessions.Close}, st.closers...)
	return st, nil
}

// close releases the sessions first, then their backend.
func (s *stores) close() {
	for _, c := range s.closers {
		_ = c()
	}
}

var errUnknownBackend = errors.New("unknown backend")
