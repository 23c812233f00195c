package server

import (
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/impersonation"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Config holds HTTP surface settings.
type Config struct {
	Tenant        tenant.Config
	Impersonation impersonation.Config

	// SkipTenantPaths never resolve a tenant.
	SkipTenantPaths []string `env:"SERVER_SKIP_TENANT_PATHS" envSeparator:"," envDefault:"/healthz,/readyz,/metrics"`

	// AllowedOrigins enables CORS for browser clients when non-empty.
	AllowedOrigins []string `env:"SERVER_CORS_ALLOWED_ORIGINS" envSeparator:","`

	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"tenantkit"`
	ReadinessTimeout time.Duration `env:"SERVER_READINESS_TIMEOUT" envDefault:"2s"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Tenant:           tenant.DefaultConfig(),
		Impersonation:    impersonation.DefaultConfig(),
		SkipTenantPaths:  []string{"/healthz", "/readyz", "/metrics"},
		MetricsNamespace: "tenantkit",
		ReadinessTimeout: 2 * time.Second,
	}
}
