package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"
)

// Manager handles session operations
type Manager struct {
	store        Store
	transport    Transport
	config       Config
	activityChan chan activityUpdate
	done         chan struct{}
}

// activityUpdate represents a session activity update
type activityUpdate struct {
	token string
	time  time.Time
}

// New creates a new session manager with the given options.
// Without WithStore sessions live in memory; without WithTransport the token
// travels in the bearer header or the session cookie.
func New(opts ...Option) *Manager {
	m := &Manager{
		config:       DefaultConfig(),
		activityChan: make(chan activityUpdate, 1000),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}

	if m.transport == nil {
		m.transport = Transports{
			BearerTransport{Header: m.config.HeaderName},
			CookieTransport{Name: m.config.CookieName, Secure: m.config.SecureCookies},
		}
	}

	// Background worker keeps activity writes off the request path
	go m.activityWorker()

	return m
}

// Get retrieves an existing session
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Authenticate binds username to the session, rotating its token so a
// pre-login token can never be replayed as an authenticated one. The
// request's previous session, if any, is deleted; values are stored on the
// new one.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, username string, values map[string]any) (*Session, error) {
	if existing, err := m.Get(ctx, r); err == nil {
		_ = m.store.Delete(ctx, existing.Token)
	}

	session, err := m.createSession(ctx, username)
	if err != nil {
		return nil, err
	}
	for k, v := range values {
		session.Set(k, v)
	}
	if err := m.store.Update(ctx, session); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}

	idle, _ := m.config.timeouts(true)
	if err := m.transport.SetToken(w, session.Token, idle); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}
	return session, nil
}

// Destroy deletes the session
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token, err := m.transport.GetToken(r)
	if err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}

	return m.transport.ClearToken(w)
}

// DestroyAll deletes every session of username, e.g. after a password change.
func (m *Manager) DestroyAll(ctx context.Context, username string) error {
	return m.store.DeleteByUsername(ctx, username)
}

// createSession creates and stores a new session
func (m *Manager) createSession(ctx context.Context, username string) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	idle, max := m.config.timeouts(username != "")
	now := time.Now()

	session := NewSession(token, username, m.calculateExpiry(now, now, idle, max).Sub(now))
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// shouldUpdateActivity checks if activity should be updated
func (m *Manager) shouldUpdateActivity(session *Session) bool {
	return time.Since(session.LastActivityAt) >= m.config.ActivityUpdateThreshold
}

// queueActivityUpdate queues a session activity update
func (m *Manager) queueActivityUpdate(token string) {
	select {
	case m.activityChan <- activityUpdate{token: token, time: time.Now()}:
	default:
		// Channel full, drop update
	}
}

// activityWorker processes activity updates
func (m *Manager) activityWorker() {
	for {
		select {
		case update := <-m.activityChan:
			_ = m.store.UpdateActivity(context.Background(), update.token, update.time)
		case <-m.done:
			// Drain remaining updates for graceful shutdown
			for {
				select {
				case update := <-m.activityChan:
					_ = m.store.UpdateActivity(context.Background(), update.token, update.time)
				default:
					return
				}
			}
		}
	}
}

// Close gracefully shuts down the session manager
func (m *Manager) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	if c, ok := m.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// calculateExpiry returns the next expiry time (min of idle and max lifetime)
func (m *Manager) calculateExpiry(createdAt, now time.Time, idle, max time.Duration) time.Time {
	idleExpiry := now.Add(idle)
	maxExpiry := createdAt.Add(max)

	if maxExpiry.Before(idleExpiry) {
		return maxExpiry
	}
	return idleExpiry
}

func isAnonymous(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired)
}

// generateToken creates a cryptographically secure token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
