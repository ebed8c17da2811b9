// Package ratelimit keeps SWAPI request volume polite. A token bucket spaces
// out requests locally, and a 429 response starts a cooldown that is shared
// through Redis with every other client instance.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Redis keys for cooldown state storage.
const (
	RedisKeyBlockedUntil = "swapi:rate_limit:blocked_until"
	RedisKeyLastUpdate   = "swapi:rate_limit:last_update"
)

// DefaultCooldown applies when a 429 response carries no usable Retry-After.
const DefaultCooldown = 60 * time.Second

// MaxCooldown caps a server-supplied Retry-After.
const MaxCooldown = 15 * time.Minute

// CooldownState represents the shared SWAPI throttling state.
type CooldownState struct {
	// BlockedUntil is the time before which no request may be sent.
	// Zero when no cooldown is active.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastUpdate is when the state was last written.
	LastUpdate time.Time `json:"last_update"`
}

// IsBlocked returns true while a cooldown is active.
func (s *CooldownState) IsBlocked() bool {
	return time.Now().Before(s.BlockedUntil)
}

// IsStale returns true if the state is older than maxAge.
func (s *CooldownState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// TimeUntilReset returns the remaining cooldown.
// Returns 0 if no cooldown is active.
func (s *CooldownState) TimeUntilReset() time.Duration {
	duration := time.Until(s.BlockedUntil)
	if duration < 0 {
		return 0
	}
	return duration
}

// ParseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. It returns fallback for a missing or malformed value and
// never more than MaxCooldown.
func ParseRetryAfter(headers http.Header, now time.Time, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(headers.Get("Retry-After"))
	if value == "" {
		return fallback
	}

	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = at.Sub(now)
	} else {
		return fallback
	}

	if d <= 0 {
		return 0
	}
	if d > MaxCooldown {
		return MaxCooldown
	}
	return d
}
