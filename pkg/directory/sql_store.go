package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	lookupUserQuery = `SELECT username, tenant_id, profile FROM global_users WHERE username = $1`

	activeTenantsQuery = `SELECT tenant_id, url, username, password, driver,
	max_open_conns, max_idle_conns, conn_max_lifetime_seconds, conn_max_idle_time_seconds,
	connect_timeout_seconds, validation_query
FROM tenant_datasources
WHERE active = TRUE
ORDER BY tenant_id`
)

// SQLStore reads the directory tables through the directory pool.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a directory store on the directory pool.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// LookupUser implements Store.
func (s *SQLStore) LookupUser(ctx context.Context, username string) (User, error) {
	var (
		u       User
		profile []byte
	)
	err := s.db.QueryRowContext(ctx, lookupUserQuery, username).Scan(&u.Username, &u.TenantID, &profile)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, errors.Join(ErrQueryFailed, err)
	}

	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &u.Profile); err != nil {
			return User{}, errors.Join(ErrQueryFailed, fmt.Errorf("decode profile of %q: %w", username, err))
		}
	}
	return u, nil
}

// TenantForUser implements tenant.DirectoryLookup.
func (s *SQLStore) TenantForUser(ctx context.Context, username string) (string, error) {
	return TenantForUser(ctx, s, username)
}

// ActiveTenants implements Store.
func (s *SQLStore) ActiveTenants(ctx context.Context) ([]TenantConfig, error) {
	rows, err := s.db.QueryContext(ctx, activeTenantsQuery)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []TenantConfig
	for rows.Next() {
		var (
			c                                  TenantConfig
			maxOpen, maxIdle                   sql.NullInt64
			lifetime, idleTime, connectTimeout sql.NullInt64
			validation                         sql.NullString
		)
		if err := rows.Scan(
			&c.TenantID, &c.URL, &c.Username, &c.Password, &c.Driver,
			&maxOpen, &maxIdle, &lifetime, &idleTime, &connectTimeout, &validation,
		); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}

		c.Active = true
		c.MaxOpenConns = int(maxOpen.Int64)
		c.MaxIdleConns = int(maxIdle.Int64)
		c.ConnMaxLifetime = seconds(lifetime)
		c.ConnMaxIdleTime = seconds(idleTime)
		c.ConnectTimeout = seconds(connectTimeout)
		c.ValidationQuery = validation.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return out, nil
}

func seconds(v sql.NullInt64) time.Duration {
	if !v.Valid || v.Int64 <= 0 {
		return 0
	}
	return time.Duration(v.Int64) * time.Second
}
