package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is a request captured by an SSEServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

// SSEWriter writes server-sent events and flushes after each one.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// Event writes one event with an optional event name and a JSON data payload.
func (s *SSEWriter) Event(name string, v any) {
	if name != "" {
		fmt.Fprintf(s.w, "event: %s\n", name)
	}
	b, _ := json.Marshal(v)
	fmt.Fprintf(s.w, "data: %s\n\n", b)
	s.flusher.Flush()
}

// Data writes one unnamed event.
func (s *SSEWriter) Data(v any) { s.Event("", v) }

// Raw writes a literal data payload, e.g. "[DONE]" or broken JSON.
func (s *SSEWriter) Raw(payload string) {
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flusher.Flush()
}

// SSEHandler scripts the stream of one request.
type SSEHandler func(w *SSEWriter, r *http.Request)

// SSEServer is an httptest server that answers every request with a scripted
// event stream and records what it received.
type SSEServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewSSEServer starts a server closed automatically at test cleanup.
func NewSSEServer(t testing.TB, handler SSEHandler) *SSEServer {
	t.Helper()
	s := &SSEServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		handler(&SSEWriter{w: w, flusher: w.(http.Flusher)}, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// NewStatusServer starts a server answering every request with status and a
// JSON body.
func NewStatusServer(t testing.TB, status int, body any) *SSEServer {
	t.Helper()
	s := &SSEServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *SSEServer) record(r *http.Request) {
	rec := RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
	}
	if b, err := io.ReadAll(r.Body); err == nil && len(b) > 0 {
		_ = json.Unmarshal(b, &rec.Body)
	}
	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()
}

// Requests returns the recorded requests.
func (s *SSEServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request. It fails the test if none arrived.
func (s *SSEServer) LastRequest(t testing.TB) RecordedRequest {
	t.Helper()
	reqs := s.Requests()
	if len(reqs) == 0 {
		t.Fatal("no request recorded")
	}
	return reqs[len(reqs)-1]
}
