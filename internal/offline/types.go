package offline

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Request is the part of an outgoing fetch the cache layer looks at.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// IsNavigation reports whether the request loads a top-level document.
func (r Request) IsNavigation() bool {
	if r.Header == nil {
		return false
	}
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return r.method() == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// Response is an immutable snapshot of an upstream or cached response.
// Callers receive copies, so mutating one never affects the cache.
type Response struct {
	Status    int         `json:"status"`
	Header    http.Header `json:"header"`
	Body      []byte      `json:"body"`
	URL       string      `json:"url"`
	StoredAt  time.Time   `json:"storedAt,omitempty"`
	FromCache bool        `json:"-"`
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Clone deep-copies the response.
func (r *Response) Clone() *Response {
	c := *r
	c.Header = r.Header.Clone()
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return &c
}

// cacheable reports whether a response may be written through: only
// successful responses for http(s) URLs are kept.
func cacheable(rawURL string, resp *Response) bool {
	if resp == nil || !resp.OK() {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
