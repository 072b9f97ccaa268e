package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache. Expired entries are dropped on access
// and by a background sweep stopped by Close.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	config  Config
	cancel  context.CancelFunc
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryCache creates a memory cache with the default configuration
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithConfig(DefaultConfig())
}

// NewMemoryCacheWithConfig creates a memory cache and starts its sweep
func NewMemoryCacheWithConfig(config Config) *MemoryCache {
	ctx, cancel := context.WithCancel(context.Background())
	m := &MemoryCache{
		entries: make(map[string]entry),
		config:  config,
		cancel:  cancel,
	}
	go m.sweep(ctx, time.Minute)
	return m
}

// Get implements Cache
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	e, ok := m.entries[m.config.Prefix+key]
	m.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return nil, ErrCacheMiss{Key: key}
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set implements Cache
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[m.config.Prefix+key] = e
	m.mu.Unlock()
	return nil
}

// Delete implements Cache
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, m.config.Prefix+key)
	m.mu.Unlock()
	return nil
}

// Exists implements Cache
func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	e, ok := m.entries[m.config.Prefix+key]
	m.mu.RUnlock()
	return ok && !e.expired(time.Now()), nil
}

// Close stops the background sweep
func (m *MemoryCache) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	return nil
}

func (m *MemoryCache) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.entries {
				if e.expired(now) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
