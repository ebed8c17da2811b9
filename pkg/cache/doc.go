// Package cache provides a Redis-backed response cache for SWAPI requests.
//
// SWAPI data changes rarely, so list pages are good cache candidates. The
// manager stores the raw response body with its validators and serves it
// until it expires:
//
// - Expires and Cache-Control max-age are honoured when present
// - Responses without freshness headers get Config.DefaultTTL
// - No entry is fresh for longer than Config.MaxTTL
// - Fresh entries are served without a request
// - Stale entries with an ETag / Last-Modified stay for Config.StaleTTL and
//   are revalidated with a conditional request (304 reuse)
// - Keys include the API host so mirrors do not share entries
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient, cache.DefaultConfig())
//
//	key := cache.CacheKey{
//		Host:        "swapi.dev",
//		Endpoint:    "/api/people/",
//		QueryParams: url.Values{"page": []string{"2"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch from SWAPI
//	case err != nil:
//		return err
//	case entry.IsExpired():
//		// revalidate with cache.AddConditionalHeaders
//	}
//
// # HTTP Response Caching
//
//	entry, err := cache.ResponseToEntry(resp, manager.Config())
//	if err != nil {
//		return err
//	}
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Metrics
//
//   - swapi_cache_hits_total{layer="redis"} - Cache hits
//   - swapi_cache_misses_total - Cache misses, stale entries included
//   - swapi_cache_size_bytes{layer="redis"} - Bytes written to the cache
//   - swapi_conditional_requests_total - Requests sent with validators
//   - swapi_304_responses_total - Not Modified responses
//   - swapi_cache_errors_total{operation} - Cache operation errors
package cache
