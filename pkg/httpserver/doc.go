// Package httpserver runs an http.Handler with graceful shutdown and
// background tasks tied to the server's lifetime.
//
// Run blocks until its context is cancelled, SIGINT or SIGTERM arrives,
// Shutdown is called or a background task fails. Background tasks registered
// with WithBackground, such as the periodic pool reload, get a context that
// is cancelled when the server stops.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithBackground("pool-reload", func(ctx context.Context) error {
//			registry.Run(ctx, cfg.DBPool.ReloadInterval)
//			return nil
//		}),
//	)
//	err := srv.Run(ctx, router)
//
// LivenessHandler and ReadinessHandler back the /healthz and /readyz probes.
// Listen errors wrap ErrStart and shutdown errors wrap ErrShutdown.
package httpserver
