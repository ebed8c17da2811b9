package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for rate limit tracking.
var (
	swapiRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapi_rate_limit_blocks_total",
		Help: "Total number of requests blocked by an active 429 cooldown",
	})

	swapiRateLimitCooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapi_rate_limit_cooldowns_total",
		Help: "Total number of cooldowns started by 429 responses",
	})

	swapiRateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapi_rate_limit_wait_seconds",
		Help:    "Time spent waiting for the local token bucket",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})
)

// Config holds the limiter configuration.
type Config struct {
	// RequestsPerSecond is the sustained local request rate
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of requests allowed at once
	Burst int `yaml:"burst"`

	// DefaultCooldown applies to 429 responses without Retry-After
	DefaultCooldown time.Duration `yaml:"default_cooldown"`
}

// DefaultConfig returns conservative limits for the public SWAPI.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		Burst:             5,
		DefaultCooldown:   DefaultCooldown,
	}
}

// Tracker gates SWAPI requests.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
	config Config

	limiterMu sync.RWMutex
	limiter   *rate.Limiter

	// local holds the cooldown when no Redis client is configured.
	localMu sync.Mutex
	local   CooldownState
}

// NewTracker creates a new tracker. redisClient may be nil, in which case
// the cooldown is tracked per process.
func NewTracker(redisClient *redis.Client, cfg Config, logger zerolog.Logger) *Tracker {
	defaults := DefaultConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.DefaultCooldown <= 0 {
		cfg.DefaultCooldown = defaults.DefaultCooldown
	}

	return &Tracker{
		redis:   redisClient,
		logger:  logger,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// GetState returns the current cooldown state.
// Returns an empty (unblocked) state if nothing has been recorded.
func (t *Tracker) GetState(ctx context.Context) (*CooldownState, error) {
	if t.redis == nil {
		t.localMu.Lock()
		defer t.localMu.Unlock()
		state := t.local
		return &state, nil
	}

	blockedUntil, err := t.redis.Get(ctx, RedisKeyBlockedUntil).Int64()
	if errors.Is(err, redis.Nil) {
		return &CooldownState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get blocked until: %w", err)
	}

	lastUpdate, err := t.redis.Get(ctx, RedisKeyLastUpdate).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	return &CooldownState{
		BlockedUntil: time.UnixMilli(blockedUntil),
		LastUpdate:   time.UnixMilli(lastUpdate),
	}, nil
}

// UpdateFromResponse starts a cooldown when SWAPI answered 429 Too Many
// Requests. Other status codes are ignored.
func (t *Tracker) UpdateFromResponse(ctx context.Context, statusCode int, headers http.Header) error {
	if statusCode != http.StatusTooManyRequests {
		return nil
	}

	now := time.Now()
	cooldown := ParseRetryAfter(headers, now, t.config.DefaultCooldown)
	if cooldown <= 0 {
		return nil
	}

	state := CooldownState{
		BlockedUntil: now.Add(cooldown),
		LastUpdate:   now,
	}

	if t.redis == nil {
		t.localMu.Lock()
		if state.BlockedUntil.After(t.local.BlockedUntil) {
			t.local = state
		}
		t.localMu.Unlock()
	} else {
		pipe := t.redis.Pipeline()
		pipe.Set(ctx, RedisKeyBlockedUntil, state.BlockedUntil.UnixMilli(), cooldown)
		pipe.Set(ctx, RedisKeyLastUpdate, state.LastUpdate.UnixMilli(), cooldown)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("store cooldown in redis: %w", err)
		}
	}

	swapiRateLimitCooldownsTotal.Inc()
	t.logger.Warn().
		Dur("cooldown", cooldown).
		Time("blocked_until", state.BlockedUntil).
		Msg("SWAPI returned 429 - cooldown started")

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now. It returns
// false during a cooldown and otherwise waits for a token from the local
// bucket, honouring ctx.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get cooldown state: %w", err)
	}

	if state.IsBlocked() {
		t.logger.Error().
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("SWAPI cooldown active - blocking request")

		swapiRateLimitBlocksTotal.Inc()
		return false, nil
	}

	start := time.Now()
	t.limiterMu.RLock()
	err = t.limiter.Wait(ctx)
	t.limiterMu.RUnlock()
	swapiRateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("wait for rate limiter: %w", err)
	}

	return true, nil
}

// UpdateLimits adjusts the local token bucket at runtime.
func (t *Tracker) UpdateLimits(rps float64, burst int) {
	t.limiterMu.Lock()
	defer t.limiterMu.Unlock()
	t.limiter.SetLimit(rate.Limit(rps))
	t.limiter.SetBurst(burst)
}
