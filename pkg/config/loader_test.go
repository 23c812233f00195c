package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/config"
)

type poolConfig struct {
	Policy      string        `env:"POLICY" envDefault:"skip"`
	Concurrency int           `env:"CONCURRENCY" envDefault:"4"`
	Interval    time.Duration `env:"INTERVAL" envDefault:"1m"`
}

type appConfig struct {
	Name string     `env:"NAME,required"`
	Pool poolConfig `envPrefix:"POOL_"`
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		var cfg poolConfig
		require.NoError(t, config.Load(&cfg, config.WithEnvironment(map[string]string{})))
		assert.Equal(t, "skip", cfg.Policy)
		assert.Equal(t, 4, cfg.Concurrency)
		assert.Equal(t, time.Minute, cfg.Interval)
	})

	t.Run("nested and prefixed", func(t *testing.T) {
		t.Parallel()
		var cfg appConfig
		err := config.Load(&cfg,
			config.WithPrefix("TENANTD_"),
			config.WithEnvironment(map[string]string{
				"TENANTD_NAME":             "tenantd",
				"TENANTD_POOL_POLICY":      "failfast",
				"TENANTD_POOL_CONCURRENCY": "8",
			}),
		)
		require.NoError(t, err)
		assert.Equal(t, "tenantd", cfg.Name)
		assert.Equal(t, "failfast", cfg.Pool.Policy)
		assert.Equal(t, 8, cfg.Pool.Concurrency)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		var cfg appConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{}))
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("malformed value", func(t *testing.T) {
		t.Parallel()
		var cfg poolConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{"CONCURRENCY": "many"}))
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, config.Load[poolConfig](nil), config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		var cfg appConfig
		config.MustLoad(&cfg, config.WithEnvironment(map[string]string{}))
	})
	assert.NotPanics(t, func() {
		var cfg appConfig
		config.MustLoad(&cfg, config.WithEnvironment(map[string]string{"NAME": "x"}))
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TENANTKIT_CONFIG_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TENANTKIT_CONFIG_TEST_VALUE") })

	require.NoError(t, config.LoadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("TENANTKIT_CONFIG_TEST_VALUE"))

	require.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing.env")), config.ErrLoadingEnvFile)
	require.NoError(t, config.LoadEnv())
}
