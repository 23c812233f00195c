package dbpool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-sql-driver/mysql"

	"github.com/dmitrymomot/tenantkit/pkg/directory"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
)

// Opener turns one datasource row into a connection pool.
// The row already carries registry defaults for empty tuning fields.
type Opener interface {
	Open(ctx context.Context, row directory.TenantConfig) (*sql.DB, error)
}

// OpenerFunc is an adapter to allow the use of ordinary functions as Openers.
type OpenerFunc func(ctx context.Context, row directory.TenantConfig) (*sql.DB, error)

// Open calls the function.
func (f OpenerFunc) Open(ctx context.Context, row directory.TenantConfig) (*sql.DB, error) {
	return f(ctx, row)
}

// DriverOpener dispatches on the row's driver.
type DriverOpener map[string]Opener

// Open implements Opener.
func (d DriverOpener) Open(ctx context.Context, row directory.TenantConfig) (*sql.DB, error) {
	o, ok := d[row.Driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, row.Driver)
	}
	return o.Open(ctx, row)
}

// DefaultOpener opens postgres rows through pgx and mysql rows through go-sql-driver.
func DefaultOpener() DriverOpener {
	return DriverOpener{
		directory.DriverPostgres: OpenerFunc(OpenPostgres),
		directory.DriverPgx:      OpenerFunc(OpenPostgres),
		directory.DriverMySQL:    OpenerFunc(OpenMySQL),
	}
}

// OpenPostgres opens a pgx pool for row without retries.
// Build isolates failures, so a dead tenant should fail fast rather than stall startup.
func OpenPostgres(ctx context.Context, row directory.TenantConfig) (*sql.DB, error) {
	return pg.OpenDB(ctx, pg.Config{
		ConnectionString: row.URL,
		User:             row.Username,
		Password:         row.Password,
		MaxOpenConns:     clampInt32(row.MaxOpenConns),
		MaxIdleConns:     clampInt32(row.MaxIdleConns),
		MaxConnLifetime:  row.ConnMaxLifetime,
		MaxConnIdleTime:  row.ConnMaxIdleTime,
		ConnectTimeout:   row.ConnectTimeout,
		RetryAttempts:    1,
	})
}

// OpenMySQL opens a database/sql pool for a MySQL DSN.
func OpenMySQL(_ context.Context, row directory.TenantConfig) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(row.URL)
	if err != nil {
		return nil, errors.Join(ErrPoolBuild, err)
	}
	if row.Username != "" {
		cfg.User = row.Username
	}
	if row.Password != "" {
		cfg.Passwd = row.Password
	}
	if row.ConnectTimeout > 0 {
		cfg.Timeout = row.ConnectTimeout
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Join(ErrPoolBuild, err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(row.MaxOpenConns)
	db.SetMaxIdleConns(row.MaxIdleConns)
	db.SetConnMaxLifetime(row.ConnMaxLifetime)
	db.SetConnMaxIdleTime(row.ConnMaxIdleTime)
	return db, nil
}

func clampInt32(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}
