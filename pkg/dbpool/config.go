package dbpool

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/directory"
)

// FailurePolicy decides what a single failing tenant pool does to a build.
type FailurePolicy string

const (
	// PolicySkip drops the failing tenant with a warning and keeps building.
	PolicySkip FailurePolicy = "skip"

	// PolicyFailFast aborts the whole build on the first failing tenant.
	PolicyFailFast FailurePolicy = "failfast"
)

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (p *FailurePolicy) UnmarshalText(text []byte) error {
	switch v := FailurePolicy(text); v {
	case PolicySkip, PolicyFailFast:
		*p = v
		return nil
	case "":
		*p = PolicySkip
		return nil
	default:
		return fmt.Errorf("dbpool: unknown failure policy %q", text)
	}
}

// Config holds registry-wide settings and the defaults applied to datasource
// rows that leave tuning columns empty.
type Config struct {
	FailurePolicy    FailurePolicy `env:"DBPOOL_FAILURE_POLICY" envDefault:"skip"`       // FailurePolicy is skip or failfast.
	BuildConcurrency int           `env:"DBPOOL_BUILD_CONCURRENCY" envDefault:"4"`       // BuildConcurrency bounds pools opened in parallel.
	ReloadInterval   time.Duration `env:"DBPOOL_RELOAD_INTERVAL" envDefault:"0s"`        // ReloadInterval enables periodic reload when positive.
	MaxOpenConns     int           `env:"DBPOOL_MAX_OPEN_CONNS" envDefault:"10"`         // MaxOpenConns is the default pool size.
	MaxIdleConns     int           `env:"DBPOOL_MAX_IDLE_CONNS" envDefault:"2"`          // MaxIdleConns is the default number of idle connections.
	ConnMaxLifetime  time.Duration `env:"DBPOOL_CONN_MAX_LIFETIME" envDefault:"30m"`     // ConnMaxLifetime is the default connection lifetime.
	ConnMaxIdleTime  time.Duration `env:"DBPOOL_CONN_MAX_IDLE_TIME" envDefault:"5m"`     // ConnMaxIdleTime is the default idle time before a connection is closed.
	ConnectTimeout   time.Duration `env:"DBPOOL_CONNECT_TIMEOUT" envDefault:"5s"`        // ConnectTimeout bounds dialing and validation.
	ValidationQuery  string        `env:"DBPOOL_VALIDATION_QUERY" envDefault:"SELECT 1"` // ValidationQuery runs once against every new pool.
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{
		FailurePolicy:    PolicySkip,
		BuildConcurrency: 4,
		MaxOpenConns:     10,
		MaxIdleConns:     2,
		ConnMaxLifetime:  30 * time.Minute,
		ConnMaxIdleTime:  5 * time.Minute,
		ConnectTimeout:   5 * time.Second,
		ValidationQuery:  "SELECT 1",
	}
}

// withDefaults fills the zero tuning fields of row.
func (c Config) withDefaults(row directory.TenantConfig) directory.TenantConfig {
	if row.MaxOpenConns == 0 {
		row.MaxOpenConns = c.MaxOpenConns
	}
	if row.MaxIdleConns == 0 {
		row.MaxIdleConns = c.MaxIdleConns
	}
	if row.ConnMaxLifetime == 0 {
		row.ConnMaxLifetime = c.ConnMaxLifetime
	}
	if row.ConnMaxIdleTime == 0 {
		row.ConnMaxIdleTime = c.ConnMaxIdleTime
	}
	if row.ConnectTimeout == 0 {
		row.ConnectTimeout = c.ConnectTimeout
	}
	if row.ValidationQuery == "" {
		row.ValidationQuery = c.ValidationQuery
	}
	return row
}
