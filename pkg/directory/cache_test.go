package directory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/directory"
)

type fakeStore struct {
	mu      sync.Mutex
	users   map[string]directory.User
	lookups int
}

func (f *fakeStore) LookupUser(ctx context.Context, username string) (directory.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	u, ok := f.users[username]
	if !ok {
		return directory.User{}, directory.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) ActiveTenants(ctx context.Context) ([]directory.TenantConfig, error) {
	return []directory.TenantConfig{{TenantID: "acme"}}, nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

type cacheCounter struct {
	mu           sync.Mutex
	hits, misses int
}

func (c *cacheCounter) DirectoryCacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits++
}

func (c *cacheCounter) DirectoryCacheMiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
}

func TestCachedStore(t *testing.T) {
	t.Parallel()

	t.Run("hits are served from cache", func(t *testing.T) {
		t.Parallel()

		backend := &fakeStore{users: map[string]directory.User{"bob": {Username: "bob", TenantID: "gamma"}}}
		counter := &cacheCounter{}
		store := directory.NewCachedStore(backend, 10, time.Minute, directory.WithCacheObserver(counter))

		for range 3 {
			id, err := store.TenantForUser(context.Background(), "bob")
			require.NoError(t, err)
			assert.Equal(t, "gamma", id)
		}
		assert.Equal(t, 1, backend.calls())
		assert.Equal(t, 2, counter.hits)
		assert.Equal(t, 1, counter.misses)
	})

	t.Run("misses are not cached", func(t *testing.T) {
		t.Parallel()

		backend := &fakeStore{users: map[string]directory.User{}}
		store := directory.NewCachedStore(backend, 10, time.Minute)

		_, err := store.LookupUser(context.Background(), "dave")
		require.ErrorIs(t, err, directory.ErrUserNotFound)

		backend.mu.Lock()
		backend.users["dave"] = directory.User{Username: "dave", TenantID: "acme"}
		backend.mu.Unlock()

		u, err := store.LookupUser(context.Background(), "dave")
		require.NoError(t, err)
		assert.Equal(t, "acme", u.TenantID)
	})

	t.Run("invalidate forces reload", func(t *testing.T) {
		t.Parallel()

		backend := &fakeStore{users: map[string]directory.User{"bob": {Username: "bob", TenantID: "gamma"}}}
		store := directory.NewCachedStore(backend, 10, time.Minute)

		_, _ = store.LookupUser(context.Background(), "bob")
		store.Invalidate("bob")
		_, _ = store.LookupUser(context.Background(), "bob")
		assert.Equal(t, 2, backend.calls())

		store.Purge()
		_, _ = store.LookupUser(context.Background(), "bob")
		assert.Equal(t, 3, backend.calls())
	})

	t.Run("active tenants pass through", func(t *testing.T) {
		t.Parallel()

		store := directory.NewCachedStore(&fakeStore{}, 10, time.Minute)
		rows, err := store.ActiveTenants(context.Background())
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}
