package session

import (
	"context"
	"net/http"
)

// Middleware loads the request's session, if any, into the context.
// Requests without a valid session continue anonymously.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.Get(r.Context(), r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if m.shouldUpdateActivity(session) {
			m.queueActivityUpdate(session.Token)
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// Username returns the login name held by the request's session.
// Anonymous requests yield an empty name and no error; store failures and
// corrupt sessions are returned so callers can decide how to degrade.
func (m *Manager) Username(r *http.Request) (string, error) {
	if session, ok := FromContext(r.Context()); ok {
		return session.Username, nil
	}
	return m.usernameFromStore(r.Context(), r)
}

func (m *Manager) usernameFromStore(ctx context.Context, r *http.Request) (string, error) {
	session, err := m.Get(ctx, r)
	switch {
	case err == nil:
		return session.Username, nil
	case isAnonymous(err):
		return "", nil
	default:
		return "", err
	}
}
