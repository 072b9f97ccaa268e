package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/ormbind/internal/orm/metamodel"
	"github.com/conduit-lang/ormbind/internal/orm/naming"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "unspecified", cfg.Cache.SharedCacheMode)
	assert.Equal(t, "read_write", cfg.Cache.DefaultConcurrency)
	assert.Equal(t, "jpa", cfg.Naming.Implicit)
	assert.Equal(t, "identity", cfg.Naming.Physical)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "ormbind:", cfg.Redis.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "localhost:8089", cfg.ServerAddr())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := `
cache:
  shared_cache_mode: enable_selective
  default_concurrency: nonstrict_read_write
naming:
  physical: snake_case
  default_schema: zoo
listeners:
  defaults:
    - com.acme.AuditListener
database:
  driver: sqlite3
  url: file:zoo.db
redis:
  addr: localhost:6380
  ttl: 1h
server:
  port: 9000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ormbind.yaml"), []byte(content), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	options, err := cfg.BindingOptions()
	require.NoError(t, err)
	assert.Equal(t, metamodel.CacheModeEnableSelective, options.SharedCacheMode)
	assert.Equal(t, metamodel.ConcurrencyNonstrictReadWrite, options.DefaultConcurrency)
	assert.Equal(t, []string{"com.acme.AuditListener"}, options.DefaultListeners)

	strategies, err := cfg.NamingStrategies()
	require.NoError(t, err)
	assert.IsType(t, naming.SnakeCasePhysical{}, strategies.Physical)
	assert.Equal(t, "zoo", strategies.DefaultSchema)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.True(t, cfg.UsesRedis())
	store := cfg.StoreConfig()
	assert.Equal(t, "localhost:6380", store.Addr)
	assert.Equal(t, time.Hour, store.Cache.DefaultTTL)
	assert.Equal(t, "localhost:9000", cfg.ServerAddr())
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ORMBIND_NAMING_IMPLICIT", "component_path")
	t.Setenv("ORMBIND_SERVER_PORT", "7000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "component_path", cfg.Naming.Implicit)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"shared cache mode", func(c *Config) { c.Cache.SharedCacheMode = "sometimes" }},
		{"concurrency", func(c *Config) { c.Cache.DefaultConcurrency = "optimistic" }},
		{"implicit naming", func(c *Config) { c.Naming.Implicit = "legacy" }},
		{"physical naming", func(c *Config) { c.Naming.Physical = "kebab" }},
		{"driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.Logging.Development = true
	cfg.Logging.Level = "debug"
	logger, err = cfg.Logger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}
