package directory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheObserver receives cache hit and miss notifications.
type CacheObserver interface {
	DirectoryCacheHit()
	DirectoryCacheMiss()
}

// CachedStore keeps recent user lookups in a size-bounded LRU with TTL.
// Only hits are cached, so a user added to the directory is visible on the
// next lookup. ActiveTenants always goes to the underlying store.
type CachedStore struct {
	next     Store
	users    *expirable.LRU[string, User]
	observer CacheObserver
}

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

// WithCacheObserver reports hits and misses to o.
func WithCacheObserver(o CacheObserver) CacheOption {
	return func(c *CachedStore) {
		c.observer = o
	}
}

// NewCachedStore wraps next with an LRU of at most size entries, each living ttl.
func NewCachedStore(next Store, size int, ttl time.Duration, opts ...CacheOption) *CachedStore {
	if size <= 0 {
		size = 1024
	}
	c := &CachedStore{
		next:  next,
		users: expirable.NewLRU[string, User](size, nil, ttl),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupUser implements Store.
func (c *CachedStore) LookupUser(ctx context.Context, username string) (User, error) {
	if u, ok := c.users.Get(username); ok {
		if c.observer != nil {
			c.observer.DirectoryCacheHit()
		}
		return u, nil
	}
	if c.observer != nil {
		c.observer.DirectoryCacheMiss()
	}

	u, err := c.next.LookupUser(ctx, username)
	if err != nil {
		return User{}, err
	}
	c.users.Add(username, u)
	return u, nil
}

// TenantForUser implements tenant.DirectoryLookup.
func (c *CachedStore) TenantForUser(ctx context.Context, username string) (string, error) {
	return TenantForUser(ctx, c, username)
}

// ActiveTenants implements Store.
func (c *CachedStore) ActiveTenants(ctx context.Context) ([]TenantConfig, error) {
	return c.next.ActiveTenants(ctx)
}

// Invalidate drops the cached record for username.
func (c *CachedStore) Invalidate(username string) {
	c.users.Remove(username)
}

// Purge drops every cached record.
func (c *CachedStore) Purge() {
	c.users.Purge()
}
