package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/directory"
)

const (
	findUserQuery      = `SELECT id, username, password_hash, role, authorities FROM users WHERE username = $1`
	findUserQueryMySQL = `SELECT id, username, password_hash, role, authorities FROM users WHERE username = ?`

	findUserByIDQuery      = `SELECT id, username, password_hash, role, authorities FROM users WHERE id = $1`
	findUserByIDQueryMySQL = `SELECT id, username, password_hash, role, authorities FROM users WHERE id = ?`
)

// UserStore reads users from the tenant database selected by the context.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*Principal, error)
}

// TenantDB is the part of dbrouter.Router the user store needs.
type TenantDB interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Tenant(ctx context.Context) dbrouter.Target
}

// SQLUserStore reads the users table of the bound tenant.
type SQLUserStore struct {
	db TenantDB
}

// NewSQLUserStore creates a user store on top of the connection router.
func NewSQLUserStore(db TenantDB) *SQLUserStore {
	return &SQLUserStore{db: db}
}

// FindByUsername implements UserStore. It refuses to query the directory
// pool: a tenant without a pool is reported as dbrouter.ErrPoolUnavailable.
func (s *SQLUserStore) FindByUsername(ctx context.Context, username string) (*Principal, error) {
	return s.find(ctx, findUserQuery, findUserQueryMySQL, username)
}

// FindByID reads a user of the bound tenant by id. Like FindByUsername it
// never falls back to the directory pool.
func (s *SQLUserStore) FindByID(ctx context.Context, id int64) (*Principal, error) {
	return s.find(ctx, findUserByIDQuery, findUserByIDQueryMySQL, id)
}

func (s *SQLUserStore) find(ctx context.Context, pgQuery, mysqlQuery string, arg any) (*Principal, error) {
	target := s.db.Tenant(ctx)
	if target.Fallback {
		return nil, fmt.Errorf("%w: no pool for tenant %q", dbrouter.ErrPoolUnavailable, target.TenantID)
	}

	query := pgQuery
	if target.Driver == directory.DriverMySQL {
		query = mysqlQuery
	}

	var (
		p           Principal
		authorities sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&p.UserID, &p.Username, &p.PasswordHash, &p.Role, &authorities)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user in tenant %q: %w", target.TenantID, err)
	}

	p.Authorities = splitAuthorities(authorities.String)
	p.TenantID = target.TenantID
	return &p, nil
}

func splitAuthorities(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
