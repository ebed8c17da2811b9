package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/swapi-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Config holds cache freshness limits.
type Config struct {
	// DefaultTTL applies when a response carries no freshness headers
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// MaxTTL caps every entry, whatever the response says
	MaxTTL time.Duration `yaml:"max_ttl"`

	// StaleTTL keeps entries with a validator in Redis past Expires so they
	// can be revalidated with a conditional request
	StaleTTL time.Duration `yaml:"stale_ttl"`
}

// DefaultConfig returns the cache defaults for SWAPI's static data.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 1 * time.Hour,
		MaxTTL:     24 * time.Hour,
		StaleTTL:   24 * time.Hour,
	}
}

// Manager handles caching operations with Redis backend.
type Manager struct {
	redis  *redis.Client
	config Config
	logger zerolog.Logger
}

// NewManager creates a new cache manager with Redis backend.
// Non-positive limits fall back to DefaultConfig.
func NewManager(redisClient *redis.Client, cfg Config) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}

	defaults := DefaultConfig()
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaults.DefaultTTL
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = defaults.MaxTTL
	}
	if cfg.StaleTTL <= 0 {
		cfg.StaleTTL = defaults.StaleTTL
	}

	return &Manager{
		redis:  redisClient,
		config: cfg,
		logger: logging.NewLogger("cache"),
	}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Get retrieves a cache entry by key.
// Returns ErrCacheMiss if the key doesn't exist. Expired entries are still
// returned while Redis keeps them; callers check IsExpired and revalidate.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	cacheKey := key.String()

	data, err := m.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		if delErr := m.Delete(ctx, key); delErr != nil {
			m.logger.Warn().Err(delErr).Str("key", cacheKey).Msg("Failed to delete invalid cache entry")
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		CacheMisses.Inc()
		m.logger.Debug().Str("key", cacheKey).Msg("Stale cache entry")
	} else {
		CacheHits.WithLabelValues("redis").Inc()
	}

	return &entry, nil
}

// Set stores a cache entry until its Expires time, capped at MaxTTL.
// Entries carrying an ETag or Last-Modified stay StaleTTL longer for
// revalidation. Expired entries without a validator are not stored.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl > m.config.MaxTTL {
		ttl = m.config.MaxTTL
		entry.Expires = time.Now().Add(ttl)
	}
	if ShouldMakeConditionalRequest(entry) {
		ttl += m.config.StaleTTL
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.WithLabelValues("redis").Add(float64(len(data)))

	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// Refresh extends an existing entry after a 304 Not Modified response.
func (m *Manager) Refresh(ctx context.Context, key CacheKey, newExpires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	entry.Expires = newExpires
	return m.Set(ctx, key, entry)
}
