package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Supported tenant datasource drivers.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
)

// User is a global user record: the mapping from a login name to its home tenant.
type User struct {
	Username string
	TenantID string
	Profile  map[string]any
}

// TenantConfig describes how to reach one tenant database.
// Zero tuning values mean "use the pool defaults".
type TenantConfig struct {
	TenantID        string
	URL             string
	Username        string
	Password        string
	Driver          string
	Active          bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
	ValidationQuery string
}

// Validate reports whether the row can be turned into a pool.
func (c TenantConfig) Validate() error {
	var errs []error
	if !tenant.IsValidID(c.TenantID) {
		errs = append(errs, fmt.Errorf("tenant id %q", c.TenantID))
	}
	if c.URL == "" {
		errs = append(errs, errors.New("empty url"))
	}
	switch c.Driver {
	case DriverPostgres, DriverPgx, DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("driver %q", c.Driver))
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		errs = append(errs, errors.New("negative pool size"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// LogValue implements slog.LogValuer and never prints credentials.
func (c TenantConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("tenant_id", c.TenantID),
		slog.String("driver", c.Driver),
		slog.Int("max_open_conns", c.MaxOpenConns),
	)
}

// Store is the read side of the shared directory database.
type Store interface {
	// LookupUser returns the global record for username or ErrUserNotFound.
	LookupUser(ctx context.Context, username string) (User, error)

	// ActiveTenants returns every active tenant datasource row.
	ActiveTenants(ctx context.Context) ([]TenantConfig, error)
}

// TenantForUser adapts a Store to the tenant resolver's DirectoryLookup.
func TenantForUser(ctx context.Context, s Store, username string) (string, error) {
	u, err := s.LookupUser(ctx, username)
	if err != nil {
		return "", err
	}
	return u.TenantID, nil
}
