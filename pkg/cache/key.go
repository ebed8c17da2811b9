package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix is prepended to every Redis key written by the cache.
const KeyPrefix = "swapi"

// CacheKey identifies a cached SWAPI response.
type CacheKey struct {
	// Host is the API host (e.g., "swapi.dev")
	Host string

	// Endpoint is the request path (e.g., "/api/people/")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"page": "2"})
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: swapi:host:endpoint:query1=val1:query2=val2
//
// Example:
//
//	swapi:swapi.dev:api/people:page=2
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if host := strings.ToLower(k.Host); host != "" {
		parts = append(parts, host)
	}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}

// KeyFromURL builds a CacheKey from a request URL.
func KeyFromURL(u *url.URL) CacheKey {
	return CacheKey{
		Host:        u.Host,
		Endpoint:    u.Path,
		QueryParams: u.Query(),
	}
}
