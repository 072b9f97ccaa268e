// Package config loads the ormbind configuration from ormbind.yaml and
// ORMBIND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/ormbind/internal/cache"
	"github.com/conduit-lang/ormbind/internal/orm/metamodel"
	"github.com/conduit-lang/ormbind/internal/orm/naming"
)

// FileName is the configuration file name without extension
const FileName = "ormbind"

// EnvPrefix prefixes the environment variables that override file values
const EnvPrefix = "ORMBIND"

// Config represents the ormbind configuration
type Config struct {
	Cache     CacheConfig    `mapstructure:"cache"`
	Naming    NamingConfig   `mapstructure:"naming"`
	Listeners ListenerConfig `mapstructure:"listeners"`
	Database  DatabaseConfig `mapstructure:"database"`
	Redis     RedisConfig    `mapstructure:"redis"`
	Server    ServerConfig   `mapstructure:"server"`
	Logging   LoggingConfig  `mapstructure:"logging"`
}

// CacheConfig selects the second-level caching policy of bound entities
type CacheConfig struct {
	SharedCacheMode    string `mapstructure:"shared_cache_mode"`
	DefaultConcurrency string `mapstructure:"default_concurrency"`
}

// NamingConfig selects the naming strategies
type NamingConfig struct {
	Implicit       string `mapstructure:"implicit"`
	Physical       string `mapstructure:"physical"`
	DefaultSchema  string `mapstructure:"default_schema"`
	DefaultCatalog string `mapstructure:"default_catalog"`
}

// ListenerConfig lists the default entity listeners
type ListenerConfig struct {
	Defaults []string `mapstructure:"defaults"`
}

// DatabaseConfig is the schema check target
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// RedisConfig is the report store backend; an empty address selects the memory store
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig is the introspection server address
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.shared_cache_mode", "unspecified")
	v.SetDefault("cache.default_concurrency", "read_write")
	v.SetDefault("naming.implicit", "jpa")
	v.SetDefault("naming.physical", "identity")
	v.SetDefault("naming.default_schema", "")
	v.SetDefault("naming.default_catalog", "")
	v.SetDefault("listeners.defaults", []string{})
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ormbind:")
	v.SetDefault("redis.ttl", "24h")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8089)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

// Load reads path, or ormbind.yaml in the working directory when path is
// empty. A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate rejects unknown enum literals and out-of-range values
func (c *Config) Validate() error {
	if _, err := c.BindingOptions(); err != nil {
		return err
	}
	if _, err := c.NamingStrategies(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "pgx", "postgres", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be pgx, postgres or sqlite3, got: %s", c.Database.Driver)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", c.Server.Port)
	}
	return nil
}

// BindingOptions converts the cache and listener settings
func (c *Config) BindingOptions() (metamodel.Options, error) {
	mode, err := metamodel.ParseSharedCacheMode(c.Cache.SharedCacheMode)
	if err != nil {
		return metamodel.Options{}, fmt.Errorf("cache.shared_cache_mode: %w", err)
	}
	concurrency, err := metamodel.ParseCacheConcurrency(c.Cache.DefaultConcurrency)
	if err != nil {
		return metamodel.Options{}, fmt.Errorf("cache.default_concurrency: %w", err)
	}
	return metamodel.Options{
		SharedCacheMode:    mode,
		DefaultConcurrency: concurrency,
		DefaultListeners:   c.Listeners.Defaults,
	}, nil
}

// NamingStrategies builds the configured naming strategies
func (c *Config) NamingStrategies() (*naming.Naming, error) {
	implicit, err := naming.NewImplicit(c.Naming.Implicit)
	if err != nil {
		return nil, fmt.Errorf("naming.implicit: %w", err)
	}
	physical, err := naming.NewPhysical(c.Naming.Physical)
	if err != nil {
		return nil, fmt.Errorf("naming.physical: %w", err)
	}
	return &naming.Naming{
		Implicit:       implicit,
		Physical:       physical,
		DefaultSchema:  c.Naming.DefaultSchema,
		DefaultCatalog: c.Naming.DefaultCatalog,
	}, nil
}

// Logger builds a production logger, or a development logger when configured
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// UsesRedis reports whether reports are stored in Redis
func (c *Config) UsesRedis() bool {
	return c.Redis.Addr != ""
}

// StoreConfig returns the report store backend settings
func (c *Config) StoreConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Cache: cache.Config{
			DefaultTTL: c.Redis.TTL,
			Prefix:     c.Redis.Prefix,
		},
	}
}

// ServerAddr returns host:port of the introspection server
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
