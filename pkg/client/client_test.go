package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/swapi-client/pkg/cache"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

// newTestClient builds a client without Redis pointed at server.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	cfg := DefaultConfig(nil, "TestApp/1.0.0 (test@example.com)")
	cfg.BaseURL = server.URL + "/api"
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config",
			config: Config{
				UserAgent: "TestApp/1.0.0 (test@example.com)",
				BaseURL:   "https://swapi.dev/api",
			},
			expectError: false,
		},
		{
			name: "empty base url uses default",
			config: Config{
				UserAgent: "TestApp/1.0.0",
			},
			expectError: false,
		},
		{
			name: "empty user agent",
			config: Config{
				BaseURL: "https://swapi.dev/api",
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "unsupported scheme",
			config: Config{
				UserAgent: "TestApp/1.0.0",
				BaseURL:   "ftp://swapi.dev/api",
			},
			expectError: true,
			errorMsg:    `base url must be http or https (got "ftp://swapi.dev/api")`,
		},
		{
			name: "negative timeout",
			config: Config{
				UserAgent: "TestApp/1.0.0",
				Timeout:   -time.Second,
			},
			expectError: true,
			errorMsg:    "timeout must be >= 0 (got -1s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
				if client == nil {
					t.Error("Client is nil")
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	userAgent := "TestApp/1.0.0"
	cfg := DefaultConfig(nil, userAgent)

	if cfg.UserAgent != userAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, userAgent)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout <= 0 {
		t.Errorf("Timeout = %v, should be > 0", cfg.Timeout)
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		t.Errorf("RequestsPerSecond = %v, should be > 0", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		expected   ErrorClass
	}{
		{"network error", 0, io.EOF, ErrorClassNetwork},
		{"client error 404", 404, nil, ErrorClassClient},
		{"client error 403", 403, nil, ErrorClassClient},
		{"rate limit 429", 429, nil, ErrorClassRateLimit},
		{"server error 500", 500, nil, ErrorClassServer},
		{"server error 503", 503, nil, ErrorClassServer},
		{"success 200", 200, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := classify(tt.statusCode, tt.err); result != tt.expected {
				t.Errorf("classify() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestURL(t *testing.T) {
	cfg := DefaultConfig(nil, "TestApp/1.0.0")
	cfg.BaseURL = "https://swapi.dev/api/"
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tests := []struct {
		path     string
		query    url.Values
		expected string
	}{
		{"people/", nil, "https://swapi.dev/api/people/"},
		{"/planets/", url.Values{"page": {"3"}}, "https://swapi.dev/api/planets/?page=3"},
	}

	for _, tt := range tests {
		if got := client.URL(tt.path, tt.query); got != tt.expected {
			t.Errorf("URL(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func TestGet_HeadersAndPath(t *testing.T) {
	var gotPath, gotQuery, gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"count": 0}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	resp, err := client.Get(context.Background(), "people/", url.Values{"page": {"2"}})
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	resp.Body.Close()

	if gotPath != "/api/people/" {
		t.Errorf("path = %q, want /api/people/", gotPath)
	}
	if gotQuery != "page=2" {
		t.Errorf("query = %q, want page=2", gotQuery)
	}
	if gotUA != client.config.UserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, client.config.UserAgent)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
}

func TestDo_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		expectedClass ErrorClass
		rateLimited   bool
	}{
		{"not found", http.StatusNotFound, ErrorClassClient, false},
		{"server error", http.StatusBadGateway, ErrorClassServer, false},
		{"too many requests", http.StatusTooManyRequests, ErrorClassRateLimit, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := newTestClient(t, server)

			resp, err := client.Get(context.Background(), "people/", nil)
			if resp != nil {
				t.Error("expected nil response on error status")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.statusCode)
			}
			if apiErr.Class != tt.expectedClass {
				t.Errorf("Class = %q, want %q", apiErr.Class, tt.expectedClass)
			}
			if got := errors.Is(err, ErrRateLimited); got != tt.rateLimited {
				t.Errorf("errors.Is(err, ErrRateLimited) = %v, want %v", got, tt.rateLimited)
			}
		})
	}
}

func TestDo_CooldownBlocksFollowingRequests(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	ctx := context.Background()

	if _, err := client.Get(ctx, "people/", nil); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("first request error = %v, want ErrRateLimited", err)
	}

	_, err := client.Get(ctx, "people/", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second request error = %v, want ErrRateLimited", err)
	}
	if !strings.HasPrefix(err.Error(), "request blocked") {
		t.Errorf("second request error = %q, want local block", err.Error())
	}
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server)
	server.Close()

	_, err := client.Get(context.Background(), "people/", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want %q", apiErr.Class, ErrorClassNetwork)
	}
	if apiErr.Err == nil {
		t.Error("network APIError should wrap the transport error")
	}
}

func TestDo_WithoutRedisDoesNotCache(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	if client.GetCache() != nil {
		t.Fatal("cache should be nil without Redis")
	}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), "people/", nil)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		resp.Body.Close()
	}

	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestDo_FreshEntryServedWithoutRequest(t *testing.T) {
	redisClient := setupTestRedis(t)

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
		w.Header().Set("ETag", `"fresh"`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"name": "Tatooine"}`))
	}))
	defer server.Close()

	cfg := DefaultConfig(redisClient, "TestApp/1.0.0")
	cfg.BaseURL = server.URL + "/api"
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	resp1, err := client.Get(ctx, "planets/1/", nil)
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	resp1.Body.Close()

	resp2, err := client.Get(ctx, "planets/1/", nil)
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	body, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
	if resp2.Header.Get("X-Cache") != "HIT" {
		t.Error("Second response should be served from cache")
	}
	if string(body) != `{"name": "Tatooine"}` {
		t.Errorf("cached body = %q", body)
	}
}

func TestDo_Handle304NotModified(t *testing.T) {
	redisClient := setupTestRedis(t)

	var requests, conditional int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.Header.Get("If-None-Match") == `"abc123"` {
			atomic.AddInt32(&conditional, 1)
			w.Header().Set("Expires", time.Now().Add(10*time.Minute).Format(http.TimeFormat))
			w.WriteHeader(http.StatusNotModified)
			return
		}

		// Immediately stale, so the next request has to revalidate.
		w.Header().Set("Cache-Control", "max-age=0")
		w.Header().Set("ETag", `"abc123"`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"name": "Luke Skywalker"}`))
	}))
	defer server.Close()

	cfg := DefaultConfig(redisClient, "TestApp/1.0.0")
	cfg.BaseURL = server.URL + "/api"
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	resp1, err := client.Get(ctx, "people/1/", nil)
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	body1, _ := io.ReadAll(resp1.Body)
	resp1.Body.Close()

	key := cache.KeyFromURL(resp1.Request.URL)
	stale, err := client.GetCache().Get(ctx, key)
	if err != nil {
		t.Fatalf("stale entry should be kept for revalidation: %v", err)
	}
	if !stale.IsExpired() {
		t.Fatal("entry should be stale after max-age=0")
	}

	resp2, err := client.Get(ctx, "people/1/", nil)
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	if got := atomic.LoadInt32(&conditional); got != 1 {
		t.Errorf("conditional requests = %d, want 1", got)
	}
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("Second response status = %d, want %d", resp2.StatusCode, http.StatusOK)
	}
	if resp2.Header.Get("X-Cache") != "HIT" {
		t.Error("Second response should be served from cache")
	}
	if string(body1) != string(body2) {
		t.Errorf("cached body = %q, want %q", body2, body1)
	}

	entry, err := client.GetCache().Get(ctx, key)
	if err != nil {
		t.Fatalf("cache lookup failed: %v", err)
	}
	if entry.TTL() < 9*time.Minute {
		t.Errorf("entry TTL = %v, want refreshed to about 10m", entry.TTL())
	}

	// The refreshed entry is fresh again.
	resp3, err := client.Get(ctx, "people/1/", nil)
	if err != nil {
		t.Fatalf("Third request failed: %v", err)
	}
	resp3.Body.Close()

	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}
