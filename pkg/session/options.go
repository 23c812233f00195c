package session

import "time"

// Option configures a Manager.
type Option func(*Manager)

// WithStore replaces the in-memory store, e.g. with a RedisStore.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

func WithTransport(transport Transport) Option {
	return func(m *Manager) { m.transport = transport }
}

func WithConfig(config Config) Option {
	return func(m *Manager) { m.config = config }
}

// WithIdleTimeout sets how long anonymous and authenticated sessions survive without activity.
func WithIdleTimeout(anon, auth time.Duration) Option {
	return func(m *Manager) {
		m.config.AnonIdleTimeout = anon
		m.config.AuthIdleTimeout = auth
	}
}

// WithActivityUpdateThreshold limits how often request activity is written back to the store.
func WithActivityUpdateThreshold(threshold time.Duration) Option {
	return func(m *Manager) { m.config.ActivityUpdateThreshold = threshold }
}
