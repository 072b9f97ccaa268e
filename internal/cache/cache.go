// Package cache stores bootstrap reports so later commands can inspect a run
// without binding again. Reports live in a key/value backend: an in-process
// memory map or Redis.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is a key/value backend with per-entry expiry
type Cache interface {
	// Get returns the value stored under key or an ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key; a zero ttl uses the backend default and a
	// negative ttl never expires
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key
	Delete(ctx context.Context, key string) error

	// Exists reports whether key holds an unexpired value
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the backend
	Close() error
}

// Config holds the settings shared by every backend
type Config struct {
	// DefaultTTL applies when Set is called with a zero ttl
	DefaultTTL time.Duration
	// Prefix is prepended to every key
	Prefix string
}

// DefaultConfig returns a 24 hour TTL under the "ormbind:" prefix
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 24 * time.Hour,
		Prefix:     "ormbind:",
	}
}

// ErrCacheMiss is returned when a key holds no value
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss reports whether err is or wraps an ErrCacheMiss
func IsCacheMiss(err error) bool {
	var miss ErrCacheMiss
	return errors.As(err, &miss)
}
