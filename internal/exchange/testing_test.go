package exchange

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

var fixedNow = time.UnixMilli(1700000000000)

// recordedRequest captures what an adapter sent
type recordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
}

// stubExchange serves canned JSON bodies keyed by path
type stubExchange struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	routes   map[string]stubResponse
	requests []recordedRequest
}

type stubResponse struct {
	status int
	body   string
}

func newStubExchange(t *testing.T) *stubExchange {
	t.Helper()

	s := &stubExchange{t: t, routes: make(map[string]stubResponse)}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
		})
		resp, ok := s.routes[r.URL.Path]
		s.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		fmt.Fprint(w, resp.body)
	}))
	t.Cleanup(s.server.Close)

	return s
}

func (s *stubExchange) handle(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = stubResponse{status: status, body: body}
}

func (s *stubExchange) lastRequest(path string) (recordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Path == path {
			return s.requests[i], true
		}
	}
	return recordedRequest{}, false
}

func (s *stubExchange) options() ClientOptions {
	return ClientOptions{
		BaseURL:    s.server.URL,
		HTTPClient: s.server.Client(),
		Now:        func() time.Time { return fixedNow },
	}
}
