package session

import "time"

// Config is the session configuration. Anonymous sessions carry only a
// token; authenticated ones hold the encoded principal and live longer.
type Config struct {
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`
	// HeaderName carries "Bearer <token>" for API clients.
	HeaderName    string `env:"SESSION_HEADER_NAME" envDefault:"Authorization"`
	SecureCookies bool   `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	AnonIdleTimeout time.Duration `env:"SESSION_ANON_IDLE_TIMEOUT" envDefault:"30m"`
	AnonMaxLifetime time.Duration `env:"SESSION_ANON_MAX_LIFETIME" envDefault:"24h"`
	AuthIdleTimeout time.Duration `env:"SESSION_AUTH_IDLE_TIMEOUT" envDefault:"2h"`
	AuthMaxLifetime time.Duration `env:"SESSION_AUTH_MAX_LIFETIME" envDefault:"720h"`

	ActivityUpdateThreshold time.Duration `env:"SESSION_ACTIVITY_UPDATE_THRESHOLD" envDefault:"5m"`
	// CleanupInterval purges expired sessions from the memory store. Zero disables it.
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// Backend is "memory" or "redis".
	Backend string `env:"SESSION_BACKEND" envDefault:"memory"`
}

func DefaultConfig() Config {
	return Config{
		CookieName:              "sid",
		HeaderName:              "Authorization",
		AnonIdleTimeout:         30 * time.Minute,
		AnonMaxLifetime:         24 * time.Hour,
		AuthIdleTimeout:         2 * time.Hour,
		AuthMaxLifetime:         30 * 24 * time.Hour,
		ActivityUpdateThreshold: 5 * time.Minute,
		CleanupInterval:         5 * time.Minute,
		Backend:                 "memory",
	}
}

func (c Config) timeouts(authenticated bool) (idle, maxLifetime time.Duration) {
	if authenticated {
		return c.AuthIdleTimeout, c.AuthMaxLifetime
	}
	return c.AnonIdleTimeout, c.AnonMaxLifetime
}

// NewFromConfig creates a Manager from cfg; opts are applied after it.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
