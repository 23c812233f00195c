package tenant_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// mockDirectory implements tenant.DirectoryLookup for tests.
type mockDirectory struct {
	mu    sync.RWMutex
	users map[string]string
	err   error
	calls int
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{users: make(map[string]string)}
}

func (m *mockDirectory) TenantForUser(ctx context.Context, username string) (string, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	m.mu.Unlock()

	if err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.users[username]
	if !ok {
		return "", tenant.ErrTenantUnknown
	}
	return id, nil
}

func (m *mockDirectory) add(username, tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[username] = tenantID
}

func (m *mockDirectory) getCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// sessionUser reads the username from a test header standing in for session state.
func sessionUser(r *http.Request) (string, error) {
	return r.Header.Get("X-Test-Session-User"), nil
}

type countingObserver struct {
	mu       sync.Mutex
	resolved map[string]int
	failed   map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{resolved: map[string]int{}, failed: map[string]int{}}
}

func (o *countingObserver) TenantResolved(strategy string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolved[strategy]++
}

func (o *countingObserver) TenantResolutionFailed(strategy string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[strategy]++
}
