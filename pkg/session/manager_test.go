package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/session"
)

func setupManager(t *testing.T) *session.Manager {
	t.Helper()

	cfg := session.DefaultConfig()
	cfg.CookieName = "test-sid"
	cfg.CleanupInterval = 0

	m := session.NewFromConfig(cfg)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func withCookies(r *http.Request, w *httptest.ResponseRecorder) *http.Request {
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(c)
		}
	}
	return r
}

func TestManager_Authenticate(t *testing.T) {
	t.Parallel()

	manager := setupManager(t)
	ctx := context.Background()

	w1 := httptest.NewRecorder()
	prior, err := manager.Authenticate(ctx, w1, httptest.NewRequest(http.MethodPost, "/auth/login", nil), "alice", nil)
	require.NoError(t, err)

	w2 := httptest.NewRecorder()
	r2 := withCookies(httptest.NewRequest(http.MethodPost, "/auth/login", nil), w1)
	authed, err := manager.Authenticate(ctx, w2, r2, "bob", map[string]any{"principal": "encoded"})
	require.NoError(t, err)
	assert.NotEqual(t, prior.Token, authed.Token, "token must rotate on login")
	assert.Equal(t, "bob", authed.Username)

	_, err = manager.Get(ctx, withCookies(httptest.NewRequest(http.MethodGet, "/", nil), w1))
	assert.ErrorIs(t, err, session.ErrSessionNotFound, "pre-login token is revoked")

	r3 := withCookies(httptest.NewRequest(http.MethodGet, "/me", nil), w2)
	name, err := manager.Username(r3)
	require.NoError(t, err)
	assert.Equal(t, "bob", name)

	got, err := manager.Get(ctx, r3)
	require.NoError(t, err)
	v, ok := got.GetString("principal")
	assert.True(t, ok)
	assert.Equal(t, "encoded", v)

	w4 := httptest.NewRecorder()
	require.NoError(t, manager.Destroy(ctx, w4, r3))
	_, err = manager.Get(ctx, r3)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestManager_Username(t *testing.T) {
	t.Parallel()

	t.Run("anonymous request", func(t *testing.T) {
		t.Parallel()

		name, err := setupManager(t).Username(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, name)
	})

	t.Run("bearer header", func(t *testing.T) {
		t.Parallel()

		manager := setupManager(t)
		sess, err := manager.Authenticate(context.Background(), httptest.NewRecorder(),
			httptest.NewRequest(http.MethodPost, "/", nil), "alice", nil)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+sess.Token)
		name, err := manager.Username(r)
		require.NoError(t, err)
		assert.Equal(t, "alice", name)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		t.Parallel()

		manager := session.New(session.WithStore(failingStore{}))
		defer manager.Close()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer abc")
		_, err := manager.Username(r)
		assert.ErrorIs(t, err, session.ErrStoreUnavailable)
	})

	t.Run("session from context wins", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(session.WithSession(r.Context(), &session.Session{Username: "carol"}))
		name, err := setupManager(t).Username(r)
		require.NoError(t, err)
		assert.Equal(t, "carol", name)
	})
}

func TestManager_Expiry(t *testing.T) {
	t.Parallel()

	manager := session.New(
		session.WithIdleTimeout(50*time.Millisecond, 50*time.Millisecond),
		session.WithActivityUpdateThreshold(time.Hour),
	)
	defer manager.Close()

	sess, err := manager.Authenticate(context.Background(), httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/", nil), "bob", nil)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+sess.Token)
	name, err := manager.Username(r)
	require.NoError(t, err, "expired session reads as anonymous")
	assert.Empty(t, name)
}

type failingStore struct{}

var errBackend = errors.Join(session.ErrStoreUnavailable, errors.New("connection refused"))

func (failingStore) Create(context.Context, *session.Session) error { return errBackend }
func (failingStore) Get(context.Context, string) (*session.Session, error) {
	return nil, errBackend
}
func (failingStore) Update(context.Context, *session.Session) error { return errBackend }
func (failingStore) UpdateActivity(context.Context, string, time.Time) error {
	return errBackend
}
func (failingStore) Delete(context.Context, string) error           { return errBackend }
func (failingStore) DeleteByUsername(context.Context, string) error { return errBackend }
