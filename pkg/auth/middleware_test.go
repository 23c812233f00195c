package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/auth"
	"github.com/dmitrymomot/tenantkit/pkg/session"
)

func requestWithSession(t *testing.T, p *auth.Principal) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if p == nil {
		return req
	}
	sess := session.NewSession("token", p.Username, time.Hour)
	encoded, err := auth.EncodePrincipal(p)
	require.NoError(t, err)
	sess.Set(auth.SessionKey, encoded)
	return req.WithContext(session.WithSession(req.Context(), sess))
}

func TestLoadPrincipal(t *testing.T) {
	t.Parallel()

	t.Run("decodes stored principal", func(t *testing.T) {
		t.Parallel()
		var got *auth.Principal
		h := auth.LoadPrincipal(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = auth.PrincipalFromContext(r.Context())
		}))
		h.ServeHTTP(httptest.NewRecorder(), requestWithSession(t, &auth.Principal{UserID: 4, Username: "bob", TenantID: "gamma"}))
		require.NotNil(t, got)
		assert.Equal(t, "bob", got.Username)
		assert.Equal(t, auth.ErasedPassword, got.PasswordHash)
	})

	t.Run("anonymous and corrupt sessions continue without principal", func(t *testing.T) {
		t.Parallel()
		corrupt := session.NewSession("token", "bob", time.Hour)
		corrupt.Set(auth.SessionKey, "{garbage")
		reqs := []*http.Request{
			requestWithSession(t, nil),
			httptest.NewRequest(http.MethodGet, "/", nil).WithContext(
				session.WithSession(t.Context(), session.NewSession("token", "", time.Hour))),
			httptest.NewRequest(http.MethodGet, "/", nil).WithContext(
				session.WithSession(t.Context(), corrupt)),
		}
		for _, req := range reqs {
			called := false
			h := auth.LoadPrincipal(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				_, ok := auth.PrincipalFromContext(r.Context())
				assert.False(t, ok)
			}))
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.True(t, called)
		}
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	chain := func(h http.Handler) http.Handler {
		return auth.LoadPrincipal(nil)(auth.RequirePrincipal(nil)(auth.RequireRole(auth.RoleSuperAdmin, nil)(h)))
	}

	tests := []struct {
		name      string
		principal *auth.Principal
		want      int
	}{
		{name: "anonymous", principal: nil, want: http.StatusUnauthorized},
		{name: "regular user", principal: &auth.Principal{UserID: 1, Username: "alice", Role: auth.RoleAdmin}, want: http.StatusForbidden},
		{name: "super admin", principal: &auth.Principal{UserID: 9, Username: "root", Role: auth.RoleSuperAdmin}, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			chain(ok).ServeHTTP(rec, requestWithSession(t, tt.principal))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
