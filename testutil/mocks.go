// Package testutil provides mock HTTP servers for the Blossom and Discord
// REST APIs used across package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// RecordedRequest captures one request seen by a mock server. Path is the
// escaped form so percent-encoded segments stay visible to assertions.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

func record(r *http.Request) RecordedRequest {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	return RecordedRequest{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	}
}

// MockBlossomServer creates a test server that mocks Blossom API responses.
// Requests are recorded so tests can assert on query parameters and headers.
type MockBlossomServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
	Requests []RecordedRequest
}

// NewMockBlossomServer creates a new mock Blossom API server.
func NewMockBlossomServer(t *testing.T) *MockBlossomServer {
	t.Helper()
	m := &MockBlossomServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Requests = append(m.Requests, record(r))
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// LastRequest returns the most recent request seen by the server.
func (m *MockBlossomServer) LastRequest(t *testing.T) RecordedRequest {
	t.Helper()
	if len(m.Requests) == 0 {
		t.Fatal("mock Blossom server saw no requests")
	}
	return m.Requests[len(m.Requests)-1]
}

// MockSearchResponse adds a handler for the /transcription/ search endpoint.
func (m *MockBlossomServer) MockSearchResponse(count int, results []map[string]interface{}) {
	m.Handlers["/transcription/"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"count":   count,
			"results": results,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockVolunteerResponse adds a handler for the /volunteer/ lookup endpoint.
func (m *MockBlossomServer) MockVolunteerResponse(volunteers []map[string]interface{}) {
	m.Handlers["/volunteer/"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"count":   len(volunteers),
			"results": volunteers,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockHeatmapResponse adds a handler for the /submission/heatmap/ endpoint.
func (m *MockBlossomServer) MockHeatmapResponse(entries []map[string]int) {
	m.Handlers["/submission/heatmap/"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries) //nolint:errcheck // test mock response
	}
}

// MockError adds a handler that fails the given path with a status and body.
func (m *MockBlossomServer) MockError(path string, status int, body string) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// MockDiscordServer creates a test server that mocks the Discord REST API.
// Handlers are keyed "METHOD /path"; unhandled requests get 204, which is
// what Discord returns for most write operations.
type MockDiscordServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
	Requests []RecordedRequest
}

// NewMockDiscordServer creates a new mock Discord API server.
func NewMockDiscordServer(t *testing.T) *MockDiscordServer {
	t.Helper()
	m := &MockDiscordServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Requests = append(m.Requests, record(r))
		if handler, ok := m.Handlers[r.Method+" "+r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(m.Close)
	return m
}

// LastRequest returns the most recent request seen by the server.
func (m *MockDiscordServer) LastRequest(t *testing.T) RecordedRequest {
	t.Helper()
	if len(m.Requests) == 0 {
		t.Fatal("mock Discord server saw no requests")
	}
	return m.Requests[len(m.Requests)-1]
}

// MockMessageResponse adds a handler returning a message object for the given
// method and path.
func (m *MockDiscordServer) MockMessageResponse(method, path, messageID, channelID string) {
	m.Handlers[method+" "+path] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"id":         messageID,
			"channel_id": channelID,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockError adds a handler that fails the given method and path with a status
// and body.
func (m *MockDiscordServer) MockError(method, path string, status int, body string) {
	m.Handlers[method+" "+path] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
