package dbpool

import (
	"database/sql"
	"maps"
	"slices"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/directory"
)

// pool is one tenant's connection pool with the row it was built from.
type pool struct {
	row directory.TenantConfig
	db  *sql.DB
}

// Snapshot is an immutable set of tenant pools. Request code only ever reads it.
type Snapshot struct {
	pools   map[string]*pool
	builtAt time.Time
}

func newSnapshot(pools map[string]*pool) *Snapshot {
	return &Snapshot{pools: pools, builtAt: time.Now()}
}

// Lookup returns the pool for tenantID.
func (s *Snapshot) Lookup(tenantID string) (*sql.DB, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.pools[tenantID]
	if !ok {
		return nil, false
	}
	return p.db, true
}

// Driver returns the driver name the pool of tenantID was opened with.
func (s *Snapshot) Driver(tenantID string) (string, bool) {
	p, ok := s.get(tenantID)
	if !ok {
		return "", false
	}
	return p.row.Driver, true
}

// Tenants returns the tenant ids in the snapshot, sorted.
func (s *Snapshot) Tenants() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.pools))
}

// Len returns the number of tenant pools.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pools)
}

// BuiltAt returns when the snapshot was swapped in.
func (s *Snapshot) BuiltAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.builtAt
}

func (s *Snapshot) get(tenantID string) (*pool, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.pools[tenantID]
	return p, ok
}

func (s *Snapshot) has(p *pool) bool {
	if s == nil {
		return false
	}
	cur, ok := s.pools[p.row.TenantID]
	return ok && cur == p
}
