package directory_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/directory"
)

var (
	lookupSQL  = regexp.QuoteMeta(`SELECT username, tenant_id, profile FROM global_users WHERE username = $1`)
	tenantsSQL = `SELECT tenant_id, url, username, password, driver`
)

func TestSQLStore_LookupUser(t *testing.T) {
	t.Parallel()

	t.Run("found with profile", func(t *testing.T) {
		t.Parallel()

		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(lookupSQL).WithArgs("bob").WillReturnRows(
			sqlmock.NewRows([]string{"username", "tenant_id", "profile"}).
				AddRow("bob", "gamma", []byte(`{"display_name":"Bob"}`)))

		u, err := directory.NewSQLStore(db).LookupUser(context.Background(), "bob")
		require.NoError(t, err)
		assert.Equal(t, "gamma", u.TenantID)
		assert.Equal(t, "Bob", u.Profile["display_name"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null profile", func(t *testing.T) {
		t.Parallel()

		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(lookupSQL).WithArgs("carol").WillReturnRows(
			sqlmock.NewRows([]string{"username", "tenant_id", "profile"}).AddRow("carol", "delta", nil))

		id, err := directory.NewSQLStore(db).TenantForUser(context.Background(), "carol")
		require.NoError(t, err)
		assert.Equal(t, "delta", id)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()

		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(lookupSQL).WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows([]string{"username", "tenant_id", "profile"}))

		_, err = directory.NewSQLStore(db).LookupUser(context.Background(), "nobody")
		assert.ErrorIs(t, err, directory.ErrUserNotFound)
	})

	t.Run("driver error", func(t *testing.T) {
		t.Parallel()

		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(lookupSQL).WillReturnError(errors.New("connection reset"))

		_, err = directory.NewSQLStore(db).LookupUser(context.Background(), "bob")
		assert.ErrorIs(t, err, directory.ErrQueryFailed)
		assert.NotErrorIs(t, err, directory.ErrUserNotFound)
	})
}

func TestSQLStore_ActiveTenants(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{
		"tenant_id", "url", "username", "password", "driver",
		"max_open_conns", "max_idle_conns", "conn_max_lifetime_seconds", "conn_max_idle_time_seconds",
		"connect_timeout_seconds", "validation_query",
	}
	mock.ExpectQuery(tenantsSQL).WillReturnRows(sqlmock.NewRows(cols).
		AddRow("acme", "postgres://db-acme/app", "app", "secret", "postgres", 20, 5, 1800, 300, 5, "SELECT 1").
		AddRow("beta", "tcp(db-beta:3306)/app", "app", "secret", "mysql", nil, nil, nil, nil, nil, nil))

	rows, err := directory.NewSQLStore(db).ActiveTenants(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	acme := rows[0]
	assert.Equal(t, "acme", acme.TenantID)
	assert.True(t, acme.Active)
	assert.Equal(t, 20, acme.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, acme.ConnMaxLifetime)
	assert.Equal(t, 5*time.Second, acme.ConnectTimeout)
	assert.Equal(t, "SELECT 1", acme.ValidationQuery)

	beta := rows[1]
	assert.Equal(t, directory.DriverMySQL, beta.Driver)
	assert.Zero(t, beta.MaxOpenConns)
	assert.Zero(t, beta.ConnMaxLifetime)
	assert.Empty(t, beta.ValidationQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := directory.TenantConfig{TenantID: "acme", URL: "postgres://x", Driver: directory.DriverPostgres}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*directory.TenantConfig)
	}{
		{name: "bad tenant id", mutate: func(c *directory.TenantConfig) { c.TenantID = "a b" }},
		{name: "empty url", mutate: func(c *directory.TenantConfig) { c.URL = "" }},
		{name: "unknown driver", mutate: func(c *directory.TenantConfig) { c.Driver = "oracle" }},
		{name: "negative pool", mutate: func(c *directory.TenantConfig) { c.MaxOpenConns = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := valid
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), directory.ErrInvalidConfig)
		})
	}
}
