package offline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// upstream is a fake web app origin that counts hits per path.
type upstream struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{hits: make(map[string]int)}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.Method+" "+r.URL.Path]++
		u.mu.Unlock()

		switch r.URL.Path {
		case "/", "/index.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<html><body>tractorlog app</body></html>")
		case "/manifest.json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"name":"tractorlog"}`)
		case "/app.js", "/style.css":
			fmt.Fprintf(w, "asset %s", r.URL.Path)
		case "/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/api/records":
			fmt.Fprintf(w, "%s ok", r.Method)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) count(method, path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[method+" "+path]
}

// switchFetcher fails every fetch with ErrNetwork while offline is set.
type switchFetcher struct {
	inner   Fetcher
	offline atomic.Bool
	calls   atomic.Int32
}

func (f *switchFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	f.calls.Add(1)
	if f.offline.Load() {
		return nil, fmt.Errorf("%w: simulated outage", ErrNetwork)
	}
	return f.inner.Fetch(ctx, req)
}

// failingPutStorage rejects writes once armed.
type failingPutStorage struct {
	Storage
	armed atomic.Bool
}

func (s *failingPutStorage) Put(ctx context.Context, region, url string, resp *Response) error {
	if s.armed.Load() {
		return fmt.Errorf("quota exceeded")
	}
	return s.Storage.Put(ctx, region, url, resp)
}

func navigation(url string) Request {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml")
	h.Set("Sec-Fetch-Mode", "navigate")
	return Request{Method: http.MethodGet, URL: url, Header: h}
}

func subresource(url string) Request {
	h := http.Header{}
	h.Set("Sec-Fetch-Mode", "no-cors")
	return Request{Method: http.MethodGet, URL: url, Header: h}
}

func fixedClock() func() time.Time {
	t := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}
