package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf)).Info("hello")

		entry := decodeLine(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("region", "eu"))).Info("msg")
		assert.Equal(t, "eu", decodeLine(t, buf)["region"])
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()
		type key struct{}
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
				v, ok := ctx.Value(key{}).(string)
				return logger.TenantID(v), ok
			}),
		)

		log.InfoContext(context.WithValue(context.Background(), key{}, "acme"), "resolved")
		assert.Equal(t, "acme", decodeLine(t, buf)["tenant_id"])
	})

	t.Run("unknown format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env       string
		want      string
		debugSeen bool
	}{
		{env: "production", want: logger.EnvProduction},
		{env: "PROD", want: logger.EnvProduction},
		{env: "stage", want: logger.EnvStaging},
		{env: "", want: logger.EnvDevelopment, debugSeen: true},
		{env: "qa", want: logger.EnvDevelopment, debugSeen: true},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(tt.env, "tenantd"))

			log.Debug("debug line")
			assert.Equal(t, tt.debugSeen, buf.Len() > 0)

			log.Info("msg")
			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), "tenantd")
		})
	}
}

func TestWithConfig(t *testing.T) {
	t.Parallel()

	t.Run("overrides the preset", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithEnvironment(logger.EnvProduction, "tenantd"),
			logger.WithConfig(logger.Config{Level: "debug", Format: "TEXT"}),
		)
		log.Debug("debug line")
		assert.Contains(t, buf.String(), "level=DEBUG")
	})

	t.Run("invalid level panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.New(logger.WithConfig(logger.Config{Level: "loud"})) })
	})
}

func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger.SetAsDefault(logger.New(logger.WithOutput(buf)))
	slog.Info("default")
	assert.Equal(t, "default", decodeLine(t, buf)["msg"])
}
