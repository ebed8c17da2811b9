// Package testutil provides testing utilities for the SWAPI client.
package testutil

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/swapi-client/pkg/category"
)

// DefaultPageSize matches the page size of the public SWAPI.
const DefaultPageSize = 10

// MockResponse defines a canned response for one path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSWAPI is a configurable fake SWAPI server for testing. Out of the box
// it serves paginated list endpoints for every category under /api/.
type MockSWAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	records  map[category.Category][]string
	pageSize int

	// Tracking
	RequestCount      int
	ConditionalCount  int
	PathCounts        map[string]int
	LastRequestHeader http.Header
}

var defaultRecords = map[category.Category][]string{
	category.Character: {
		"Luke Skywalker", "C-3PO", "R2-D2", "Darth Vader", "Leia Organa",
		"Owen Lars", "Beru Whitesun lars", "R5-D4", "Biggs Darklighter",
		"Obi-Wan Kenobi", "Anakin Skywalker", "Wilhuff Tarkin",
	},
	category.Race: {
		"Human", "Droid", "Wookie", "Rodian", "Hutt",
	},
	category.Starship: {
		"CR90 corvette", "Star Destroyer", "Sentinel-class landing craft", "Death Star",
	},
	category.Planet: {
		"Tatooine", "Alderaan", "Yavin IV",
	},
}

// NewMockSWAPI creates a new fake SWAPI server.
func NewMockSWAPI() *MockSWAPI {
	mock := &MockSWAPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		records:    make(map[category.Category][]string),
		pageSize:   DefaultPageSize,
		PathCounts: make(map[string]int),
	}
	for c, names := range defaultRecords {
		mock.records[c] = append([]string(nil), names...)
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()

		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.listHandler(w, r)
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockSWAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the API root to configure a client with.
func (m *MockSWAPI) BaseURL() string {
	return m.server.URL + "/api"
}

// Close shuts down the mock server.
func (m *MockSWAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and custom handlers.
func (m *MockSWAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.PathCounts = make(map[string]int)
	m.LastRequestHeader = nil
	m.handlers = make(map[string]func(w http.ResponseWriter, r *http.Request))
}

// SetPageSize changes the number of records per page.
func (m *MockSWAPI) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// SetRecords replaces the record names served for a category.
func (m *MockSWAPI) SetRecords(c category.Category, names []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[c] = append([]string(nil), names...)
}

// GenerateRecords serves n records named "<Category> 1" ... "<Category> n".
func (m *MockSWAPI) GenerateRecords(c category.Category, n int) {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s %d", c, i+1)
	}
	m.SetRecords(c, names)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockSWAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockSWAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// ListPath returns the request path of a category's list endpoint.
func ListPath(c category.Category) string {
	return "/api/" + c.ResourcePath() + "/"
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSWAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockSWAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockSWAPI) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

type listRecord struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type listPayload struct {
	Count    int          `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []listRecord `json:"results"`
}

// listHandler serves /api/{resource}/?page=N the way SWAPI does.
func (m *MockSWAPI) listHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resourcePath := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/"), "/")
	c, err := category.Parse(resourcePath)
	if err != nil || c.ResourcePath() != resourcePath {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found"}`))
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail": "Not found"}`))
			return
		}
	}

	m.mu.RLock()
	names := m.records[c]
	pageSize := m.pageSize
	m.mu.RUnlock()

	start := (page - 1) * pageSize
	if start >= len(names) && page != 1 {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found"}`))
		return
	}
	end := start + pageSize
	if end > len(names) {
		end = len(names)
	}

	listURL := m.server.URL + ListPath(c)
	payload := listPayload{Count: len(names), Results: []listRecord{}}
	for i := start; i < end; i++ {
		payload.Results = append(payload.Results, listRecord{
			Name: names[i],
			URL:  fmt.Sprintf("%s%d/", listURL, i+1),
		})
	}
	if end < len(names) {
		next := fmt.Sprintf("%s?page=%d", listURL, page+1)
		payload.Next = &next
	}
	if page > 1 {
		prev := fmt.Sprintf("%s?page=%d", listURL, page-1)
		payload.Previous = &prev
	}

	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	etag := fmt.Sprintf(`"%x"`, sha1.Sum(body))
	w.Header().Set("ETag", etag)
	w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"detail": "Request was throttled."}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfter),
			"Content-Type": "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"detail": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}
