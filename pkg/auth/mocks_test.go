package auth_test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/tenantkit/pkg/auth"
	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/directory"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) LookupUser(ctx context.Context, username string) (directory.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(directory.User), args.Error(1)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (*auth.Principal, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Principal), args.Error(1)
}

// fixedTenantDB routes every query to one database and reports a fixed target.
type fixedTenantDB struct {
	db     *sql.DB
	target dbrouter.Target
}

func (f fixedTenantDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return f.db.QueryRowContext(ctx, query, args...)
}

func (f fixedTenantDB) Tenant(context.Context) dbrouter.Target { return f.target }
