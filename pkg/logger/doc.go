// Package logger builds slog loggers that pull request-scoped values out of
// the context on every record.
//
// New returns a *slog.Logger whose handler is wrapped with the registered
// extractors.
// Each registered ContextExtractor runs when a record is handled, so a tenant
// bound halfway through a request shows up on every later log line and a
// released binding disappears again.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "tenantd"),
//		logger.WithContextExtractors(
//			requestid.LoggerExtractor(),
//			tenant.LoggerExtractor(),
//			impersonation.LoggerExtractor(),
//			auth.LoggerExtractor(),
//		),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers such as TenantID, Username and Error keep key names
// consistent. Error and Errors return an empty attribute for nil errors, so
// they can be passed without a nil check.
package logger
