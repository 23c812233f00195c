package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory, indexed by token and by
// username. It suits tests and single-instance deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*Session
	byUser map[string]map[string]struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store that purges expired sessions every
// cleanupInterval. Zero disables the purge; expired sessions are still
// dropped when read.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	m := &MemoryStore{
		tokens: make(map[string]*Session),
		byUser: make(map[string]map[string]struct{}),
		stop:   make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.purgeLoop(cleanupInterval)
	}
	return m
}

func (m *MemoryStore) Create(_ context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(session.clone())
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.tokens[token]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		m.mu.Lock()
		m.remove(token)
		m.mu.Unlock()
		return nil, ErrSessionExpired
	}
	return session.clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[session.Token]; !ok {
		return ErrSessionNotFound
	}
	m.remove(session.Token)
	m.put(session.clone())
	return nil
}

func (m *MemoryStore) UpdateActivity(_ context.Context, token string, lastActivity time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.tokens[token]
	if !ok {
		return ErrSessionNotFound
	}
	session.LastActivityAt = lastActivity
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(token)
	return nil
}

func (m *MemoryStore) DeleteByUsername(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token := range m.byUser[username] {
		m.remove(token)
	}
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}

// Close stops the purge loop. Safe to call more than once.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

// put and remove keep both indexes in step; callers hold mu.
func (m *MemoryStore) put(s *Session) {
	m.tokens[s.Token] = s
	if s.Username == "" {
		return
	}
	if m.byUser[s.Username] == nil {
		m.byUser[s.Username] = make(map[string]struct{})
	}
	m.byUser[s.Username][s.Token] = struct{}{}
}

func (m *MemoryStore) remove(token string) {
	s, ok := m.tokens[token]
	if !ok {
		return
	}
	delete(m.tokens, token)
	if set := m.byUser[s.Username]; set != nil {
		delete(set, token)
		if len(set) == 0 {
			delete(m.byUser, s.Username)
		}
	}
}

func (m *MemoryStore) purgeLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			m.mu.Lock()
			for token, s := range m.tokens {
				if now.After(s.ExpiresAt) {
					m.remove(token)
				}
			}
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}
