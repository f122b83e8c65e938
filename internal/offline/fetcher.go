package offline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher performs the network leg of an interception. Transport failures
// wrap ErrNetwork; any HTTP status, including 5xx, is a response.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Accept-Encoding",
}

// HTTPFetcher fetches over HTTP with resty.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher returns a fetcher with the given client timeout. Retries are
// off: a failed fetch falls back to the cache immediately.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "tractorlog-offline/1")
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	header := req.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	for _, h := range hopHeaders {
		header.Del(h)
	}

	r := f.client.R().
		SetContext(ctx).
		SetHeaderMultiValues(header)
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.method(), req.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.method(), req.URL, err)
	}

	out := &Response{
		Status: resp.StatusCode(),
		Header: resp.Header().Clone(),
		Body:   resp.Body(),
		URL:    req.URL,
	}
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}
	out.Header.Del("Content-Length")
	return out, nil
}
