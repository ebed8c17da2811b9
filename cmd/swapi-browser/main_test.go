package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sternrassler/swapi-client/internal/config"
	"github.com/Sternrassler/swapi-client/internal/testutil"
	"github.com/Sternrassler/swapi-client/pkg/category"
	"github.com/Sternrassler/swapi-client/pkg/client"
	"github.com/Sternrassler/swapi-client/pkg/logging"
)

type stateResponse struct {
	ActiveCategory string `json:"active_category"`
	Loading        bool   `json:"loading"`
	Pagination     struct {
		Page     int  `json:"page"`
		HasNext  bool `json:"has_next"`
		ListSize int  `json:"list_size"`
	} `json:"pagination"`
	Items      []map[string]any  `json:"items"`
	Resources  map[string]string `json:"resources"`
	PageStatus string            `json:"page_status"`
}

func newTestApp(t *testing.T) (*app, *testutil.MockSWAPI) {
	t.Helper()

	mock := testutil.NewMockSWAPI()
	t.Cleanup(mock.Close)

	cfg := config.DefaultConfig()
	cfg.Client.BaseURL = mock.BaseURL()
	cfg.Client.RateLimit.RequestsPerSecond = 1000
	cfg.Client.RateLimit.Burst = 100
	cfg.Log.Level = logging.LevelDisabled

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error: %v", err)
	}
	t.Cleanup(a.close)

	return a, mock
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Result()
}

func decodeState(t *testing.T, resp *http.Response) stateResponse {
	t.Helper()

	var state stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyEndpoint_WithoutRedis(t *testing.T) {
	a, _ := newTestApp(t)

	resp := doRequest(t, newHandler(a), "GET", "/ready", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a, _ := newTestApp(t)

	resp := doRequest(t, newHandler(a), "GET", "/metrics", "")
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}

	// Plain gauges and counters are exported before any observation.
	for _, name := range []string{"swapi_items_displayed", "swapi_rate_limit_blocks_total"} {
		if !strings.Contains(bodyStr, name) {
			t.Errorf("Expected metrics output to contain %s", name)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	a, _ := newTestApp(t)
	handler := newHandler(a)

	resp := doRequest(t, handler, "GET", "/health", "")
	if resp.Header.Get(requestIDHeader) == "" {
		t.Error("Expected generated request ID")
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Result().Header.Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want caller-supplied abc-123", got)
	}
}

func TestIntents_BrowseCategory(t *testing.T) {
	a, mock := newTestApp(t)
	handler := newHandler(a)

	resp := doRequest(t, handler, "POST", "/intents/switch", `{"category": "people"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("switch status = %d, want 202", resp.StatusCode)
	}
	a.coordinator.Wait()

	state := decodeState(t, doRequest(t, handler, "GET", "/state", ""))
	if state.ActiveCategory != "character" {
		t.Errorf("active = %q, want character", state.ActiveCategory)
	}
	if len(state.Items) != testutil.DefaultPageSize || state.Pagination.ListSize != testutil.DefaultPageSize {
		t.Errorf("items=%d listSize=%d, want %d", len(state.Items), state.Pagination.ListSize, testutil.DefaultPageSize)
	}
	if state.Resources["character"] != "success" {
		t.Errorf("character resource = %q, want success", state.Resources["character"])
	}

	state = decodeState(t, doRequest(t, handler, "POST", "/intents/increment", ""))
	if state.Pagination.Page != 2 {
		t.Errorf("page = %d, want 2", state.Pagination.Page)
	}

	resp = doRequest(t, handler, "POST", "/intents/load", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status = %d, want 200", resp.StatusCode)
	}
	state = decodeState(t, resp)
	if len(state.Items) != 12 {
		t.Errorf("items = %d, want 12", len(state.Items))
	}
	if state.Pagination.HasNext {
		t.Error("has_next should be false after the last page")
	}
	if state.PageStatus != "success" {
		t.Errorf("page_status = %q, want success", state.PageStatus)
	}

	// The last page was reached, so further loads are no-ops.
	before := mock.GetRequestCount()
	doRequest(t, handler, "POST", "/intents/load", "")
	if got := mock.GetRequestCount(); got != before {
		t.Errorf("requests after exhausted load = %d, want %d", got, before)
	}
}

func TestIntents_LoadFailure(t *testing.T) {
	a, _ := newTestApp(t)
	handler := newHandler(a)

	doRequest(t, handler, "POST", "/intents/switch", `{"category": "planet"}`)
	a.coordinator.Wait()

	// Planets fit on one page, so page 2 is a 404 upstream.
	doRequest(t, handler, "POST", "/intents/increment", "")
	resp := doRequest(t, handler, "POST", "/intents/load", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("load status = %d, want 502", resp.StatusCode)
	}

	state := decodeState(t, doRequest(t, handler, "GET", "/state", ""))
	if state.PageStatus != "failure" {
		t.Errorf("page_status = %q, want failure", state.PageStatus)
	}
	if state.Loading {
		t.Error("loading should be cleared after a failed page load")
	}
	if len(state.Items) != 3 {
		t.Errorf("items = %d, want the 3 planets of page 1", len(state.Items))
	}
}

func TestIntents_RetryFailedCategory(t *testing.T) {
	a, mock := newTestApp(t)
	handler := newHandler(a)

	mock.SetResponse(testutil.ListPath(category.Starship), testutil.NewServerErrorResponse())
	doRequest(t, handler, "POST", "/intents/switch", `{"category": "starship"}`)
	a.coordinator.Wait()

	state := decodeState(t, doRequest(t, handler, "GET", "/state", ""))
	if state.Resources["starship"] != "failure" {
		t.Fatalf("starship resource = %q, want failure", state.Resources["starship"])
	}

	mock.Reset()
	resp := doRequest(t, handler, "POST", "/intents/retry", `{"category": "starship"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("retry status = %d, want 202", resp.StatusCode)
	}
	a.coordinator.Wait()

	state = decodeState(t, doRequest(t, handler, "GET", "/state", ""))
	if state.Resources["starship"] != "success" {
		t.Errorf("starship resource = %q, want success", state.Resources["starship"])
	}
	if len(state.Items) != 4 {
		t.Errorf("items = %d, want 4", len(state.Items))
	}
}

func TestIntents_BadRequests(t *testing.T) {
	a, _ := newTestApp(t)
	handler := newHandler(a)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown category", "/intents/switch", `{"category": "vehicles"}`},
		{"missing category", "/intents/switch", `{}`},
		{"malformed body", "/intents/switch", `{"category":`},
		{"retry unknown category", "/intents/retry", `{"category": "droid"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, handler, "POST", tt.path, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}

	if got := a.coordinator.ActiveCategory().Get(); got != category.Character {
		t.Errorf("active category changed to %q by invalid intents", got)
	}
}

func TestListCommand(t *testing.T) {
	mock := testutil.NewMockSWAPI()
	defer mock.Close()
	t.Setenv("REDIS_URL", "")

	tests := []struct {
		name      string
		args      []string
		wantLines []string
	}{
		{
			name:      "first page",
			args:      []string{"list", "people"},
			wantLines: []string{"   1  Luke Skywalker", "10 character item(s), page 1, more: true"},
		},
		{
			name:      "all pages",
			args:      []string{"list", "character", "--pages", "5"},
			wantLines: []string{"  12  Wilhuff Tarkin", "12 character item(s), page 2, more: false"},
		},
		{
			name:      "single page category",
			args:      []string{"list", "planets", "--pages", "3"},
			wantLines: []string{"   3  Yavin IV", "3 planet item(s), page 1, more: true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCommand()
			cmd.SetOut(&out)
			cmd.SetArgs(append(tt.args, "--base-url", mock.BaseURL(), "--log-level", "disabled"))

			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error: %v", err)
			}

			for _, line := range tt.wantLines {
				if !strings.Contains(out.String(), line) {
					t.Errorf("output missing %q:\n%s", line, out.String())
				}
			}
		})
	}
}

func TestListCommand_InvalidCategory(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"list", "vehicles"})

	err := cmd.Execute()
	if !errors.Is(err, category.ErrInvalidCategory) {
		t.Fatalf("Execute() error = %v, want ErrInvalidCategory", err)
	}
	if code := mapErrorToExitCode(err); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"nil", nil, 0},
		{"invalid category", fmt.Errorf("switch: %w", category.ErrInvalidCategory), 2},
		{"rate limited", fmt.Errorf("fetch: %w", client.ErrRateLimited), 3},
		{"network", &client.APIError{Class: client.ErrorClassNetwork}, 4},
		{"server", &client.APIError{StatusCode: 500, Class: client.ErrorClassServer}, 1},
		{"other", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorToExitCode(tt.err); got != tt.wantCode {
				t.Errorf("mapErrorToExitCode(%v) = %d, want %d", tt.err, got, tt.wantCode)
			}
		})
	}
}
