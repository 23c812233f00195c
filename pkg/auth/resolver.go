package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/tenantkit/pkg/directory"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// UserLookup is the directory read the resolver needs.
type UserLookup interface {
	LookupUser(ctx context.Context, username string) (directory.User, error)
}

// Resolver loads a principal in two phases: the directory says which tenant
// the user belongs to, then the user is read from that tenant's database.
type Resolver struct {
	directory UserLookup
	users     UserStore
	logger    *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used to report integrity failures.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver.
func NewResolver(dir UserLookup, users UserStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		directory: dir,
		users:     users,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds username's principal.
//
// On a directory hit the user's tenant is bound into the scope carried by ctx
// and stays bound after Resolve returns, so the rest of the unit of work uses
// that tenant's database. The scope owner releases it. On a directory miss the
// binding is left as it was.
func (r *Resolver) Resolve(ctx context.Context, username string) (*Principal, error) {
	rec, err := r.directory.LookupUser(ctx, username)
	if errors.Is(err, directory.ErrUserNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	if err := tenant.Bind(ctx, rec.TenantID); err != nil {
		if errors.Is(err, tenant.ErrInvalidIdentifier) {
			r.logger.WarnContext(ctx, "directory maps user to malformed tenant",
				logger.Component("auth"),
				logger.Username(username),
				logger.TenantID(rec.TenantID),
			)
			return nil, errors.Join(ErrIntegrity, err)
		}
		return nil, fmt.Errorf("bind tenant: %w", err)
	}

	p, err := r.users.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		r.logger.WarnContext(ctx, "user missing from home tenant",
			logger.Component("auth"),
			logger.Username(username),
			logger.TenantID(rec.TenantID),
		)
		return nil, ErrIntegrity
	}
	if err != nil {
		return nil, err
	}

	p.TenantID = rec.TenantID
	return p, nil
}

// Authenticate resolves username and checks password against its bcrypt hash.
// Directory misses and integrity failures are returned as is so callers can
// tell them apart; a wrong password yields ErrInvalidCredentials.
func (r *Resolver) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	p, err := r.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

// HashPassword hashes a password with bcrypt at the given cost
// (bcrypt.DefaultCost when cost is zero).
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
