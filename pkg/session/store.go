package session

import (
	"context"
	"time"
)

// Store persists sessions by token. Get returns ErrSessionNotFound for
// unknown tokens and ErrSessionExpired for sessions past ExpiresAt.
type Store interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Update(ctx context.Context, session *Session) error
	UpdateActivity(ctx context.Context, token string, lastActivity time.Time) error
	Delete(ctx context.Context, token string) error

	// DeleteByUsername ends every session of a user, e.g. after a password change.
	DeleteByUsername(ctx context.Context, username string) error
}
