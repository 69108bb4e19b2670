// Package testutil provides testing utilities for the DM fetch pipeline.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior of a mock API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock X API server for testing.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	requestCount int
	pathCounts   map[string]int
	lastQuery    map[string]string
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		pathCounts: make(map[string]int),
		lastQuery:  make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastQuery[r.URL.Path] = r.URL.RawQuery
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastQuery = make(map[string]string)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
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

// SetConversationPages configures the conversation events endpoint for
// a participant to serve the given page bodies in sequence, keyed by
// pagination token. The first request (no token) gets pages[0];
// requests with token "cursor-N" get pages[N].
func (m *MockAPI) SetConversationPages(participantID string, pages []string) {
	path := fmt.Sprintf("/2/dm_conversations/with/%s/dm_events", participantID)
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		idx := 0
		if token := r.URL.Query().Get("pagination_token"); token != "" {
			n, err := strconv.Atoi(strings.TrimPrefix(token, "cursor-"))
			if err == nil {
				idx = n
			}
		}
		setRateLimitHeaders(w, 280, 300)
		w.Header().Set("Content-Type", "application/json")
		if idx >= len(pages) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data":[],"meta":{"result_count":0}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(pages[idx]))
	})
}

// SetUserResponse configures the user lookup endpoint for a user id.
func (m *MockAPI) SetUserResponse(userID string, resp MockResponse) {
	m.SetResponse("/2/users/"+userID, resp)
}

// RequestCount returns the total number of requests served.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests served for a path.
func (m *MockAPI) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// ConversationPathCount returns the number of page requests made for a
// participant's conversation.
func (m *MockAPI) ConversationPathCount(participantID string) int {
	return m.PathCount(fmt.Sprintf("/2/dm_conversations/with/%s/dm_events", participantID))
}

// LastQuery returns the raw query string of the most recent request to
// a path.
func (m *MockAPI) LastQuery(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery[path]
}

// defaultHandler provides default API-like responses.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	setRateLimitHeaders(w, 280, 300)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"data":[]}`))
}

func setRateLimitHeaders(w http.ResponseWriter, remaining, limit int) {
	w.Header().Set("x-rate-limit-remaining", strconv.Itoa(remaining))
	w.Header().Set("x-rate-limit-limit", strconv.Itoa(limit))
	w.Header().Set("x-rate-limit-reset", strconv.FormatInt(time.Now().Add(15*time.Minute).Unix(), 10))
}

// EventPage builds a conversation events page body from message JSON
// fragments. nextCursor is omitted when empty, marking the last page.
func EventPage(nextCursor string, events ...string) string {
	meta := fmt.Sprintf(`{"result_count":%d`, len(events))
	if nextCursor != "" {
		meta += fmt.Sprintf(`,"next_token":"%s"`, nextCursor)
	}
	meta += "}"
	return fmt.Sprintf(`{"data":[%s],"meta":%s}`, strings.Join(events, ","), meta)
}

// MessageCreateEvent builds one MessageCreate event JSON fragment.
func MessageCreateEvent(id, senderID, text string, createdAt time.Time) string {
	return fmt.Sprintf(`{"id":"%s","text":"%s","created_at":"%s","sender_id":"%s","dm_conversation_id":"conv-%s","event_type":"MessageCreate"}`,
		id, text, createdAt.UTC().Format(time.RFC3339), senderID, senderID)
}

// TypedEvent builds an event JSON fragment with an explicit event type.
func TypedEvent(id, senderID, text, eventType string, createdAt time.Time) string {
	return fmt.Sprintf(`{"id":"%s","text":"%s","created_at":"%s","sender_id":"%s","dm_conversation_id":"conv-%s","event_type":"%s"}`,
		id, text, createdAt.UTC().Format(time.RFC3339), senderID, senderID, eventType)
}

// UserBody builds a user lookup response body.
func UserBody(id, username, name, bio, website string) string {
	return fmt.Sprintf(`{"data":{"id":"%s","username":"%s","name":"%s","description":"%s","url":"%s","verified":false}}`,
		id, username, name, bio, website)
}

// NewHealthyResponse creates a 200 OK response carrying rate limit headers.
func NewHealthyResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"x-rate-limit-remaining": "280",
			"x-rate-limit-limit":     "300",
			"x-rate-limit-reset":     strconv.FormatInt(time.Now().Add(15*time.Minute).Unix(), 10),
			"Content-Type":           "application/json",
		},
	}
}

// NewRateLimitedResponse creates a 429 response with an exhausted window.
func NewRateLimitedResponse(resetIn time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"title":"Too Many Requests"}`,
		Headers: map[string]string{
			"x-rate-limit-remaining": "0",
			"x-rate-limit-limit":     "300",
			"x-rate-limit-reset":     strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10),
			"Content-Type":           "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"title":"Internal Server Error"}`,
		Headers: map[string]string{
			"x-rate-limit-remaining": "270",
			"x-rate-limit-limit":     "300",
			"x-rate-limit-reset":     strconv.FormatInt(time.Now().Add(15*time.Minute).Unix(), 10),
			"Content-Type":           "application/json",
		},
	}
}
