package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestUserID(t *testing.T) {
	attr := logger.UserID("123")
	require.Equal(t, "user_id", attr.Key)
	assert.Equal(t, "123", attr.Value.Any())
}

func TestTenantID(t *testing.T) {
	attr := logger.TenantID("acme")
	require.Equal(t, "tenant_id", attr.Key)
	assert.Equal(t, "acme", attr.Value.String())

	assert.True(t, logger.TenantID("").Equal(slog.Attr{}))
}

func TestUsername(t *testing.T) {
	attr := logger.Username("alice")
	require.Equal(t, "username", attr.Key)
	assert.Equal(t, "alice", attr.Value.String())

	assert.True(t, logger.Username("").Equal(slog.Attr{}))
}

func TestImpersonatedUserID(t *testing.T) {
	attr := logger.ImpersonatedUserID(42)
	require.Equal(t, "impersonated_user_id", attr.Key)
	assert.Equal(t, int64(42), attr.Value.Int64())
}

func TestRole(t *testing.T) {
	attr := logger.Role("admin")
	require.Equal(t, "role", attr.Key)
	assert.Equal(t, "admin", attr.Value.Any())
}

func TestRequestID(t *testing.T) {
	attr := logger.RequestID("abc")
	require.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.Any())
}

func TestDomainAttrs(t *testing.T) {
	assert.Equal(t, "pgx", logger.Driver("pgx").Value.String())
	assert.Equal(t, "unbound", logger.Reason("unbound").Value.String())
	assert.Equal(t, "component", logger.Component("dbpool").Key)
}
