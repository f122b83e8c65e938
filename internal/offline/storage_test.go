package offline

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storageBackends(t *testing.T) map[string]func(t *testing.T) Storage {
	backends := map[string]func(t *testing.T) Storage{
		"memory": func(t *testing.T) Storage { return NewMemoryStorage() },
		"badger": func(t *testing.T) Storage {
			s, err := OpenBadgerStorage("")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"badger-disk": func(t *testing.T) Storage {
			s, err := OpenBadgerStorage(t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
	if addr := os.Getenv("TRACTORLOG_TEST_REDIS_ADDR"); addr != "" {
		backends["redis"] = func(t *testing.T) Storage {
			client := redis.NewClient(&redis.Options{Addr: addr})
			prefix := "tractorlog-test:" + t.Name() + ":"
			s := NewRedisStorageFromClient(client, prefix)
			t.Cleanup(func() {
				ctx := context.Background()
				if keys, err := client.Keys(ctx, prefix+"*").Result(); err == nil && len(keys) > 0 {
					client.Del(ctx, keys...)
				}
				s.Close()
			})
			return s
		}
	}
	return backends
}

func sampleResponse(body string) *Response {
	h := http.Header{}
	h.Set("Content-Type", "text/plain")
	return &Response{
		Status:   http.StatusOK,
		Header:   h,
		Body:     []byte(body),
		URL:      "http://localhost/a",
		StoredAt: time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC),
	}
}

func TestStorageContract(t *testing.T) {
	for name, open := range storageBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			_, err := s.Match(ctx, "v1", "http://localhost/a")
			assert.ErrorIs(t, err, ErrCacheMiss)

			err = s.Put(ctx, "v1", "http://localhost/a", sampleResponse("a"))
			assert.ErrorIs(t, err, ErrRegionNotFound)

			require.NoError(t, s.Open(ctx, "v1"))
			require.NoError(t, s.Open(ctx, "v1"))
			require.NoError(t, s.Open(ctx, "v2"))
			require.NoError(t, s.Put(ctx, "v1", "http://localhost/a", sampleResponse("a")))
			require.NoError(t, s.Put(ctx, "v2", "http://localhost/a", sampleResponse("b")))

			got, err := s.Match(ctx, "v1", "http://localhost/a")
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, got.Status)
			assert.Equal(t, "a", string(got.Body))
			assert.Equal(t, "text/plain", got.Header.Get("Content-Type"))
			assert.True(t, got.StoredAt.Equal(sampleResponse("").StoredAt))

			regions, err := s.Regions(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"v1", "v2"}, regions)

			require.NoError(t, s.DeleteRegion(ctx, "v1"))
			_, err = s.Match(ctx, "v1", "http://localhost/a")
			assert.ErrorIs(t, err, ErrCacheMiss)
			err = s.Put(ctx, "v1", "http://localhost/a", sampleResponse("a"))
			assert.ErrorIs(t, err, ErrRegionNotFound)

			got, err = s.Match(ctx, "v2", "http://localhost/a")
			require.NoError(t, err)
			assert.Equal(t, "b", string(got.Body))

			regions, err = s.Regions(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"v2"}, regions)
		})
	}
}

func TestStorageRegionPrefixesDoNotCollide(t *testing.T) {
	for name, open := range storageBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			require.NoError(t, s.Open(ctx, "app"))
			require.NoError(t, s.Open(ctx, "app-v2"))
			require.NoError(t, s.Put(ctx, "app-v2", "http://localhost/x", sampleResponse("x")))

			require.NoError(t, s.DeleteRegion(ctx, "app"))
			_, err := s.Match(ctx, "app-v2", "http://localhost/x")
			assert.NoError(t, err)
		})
	}
}

func TestMemoryStorageReturnsCopies(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, "v1"))
	resp := sampleResponse("abc")
	require.NoError(t, s.Put(ctx, "v1", "u", resp))
	resp.Body[0] = 'X'

	got, err := s.Match(ctx, "v1", "u")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got.Body))
}

func TestHTTPFetcher(t *testing.T) {
	up := newUpstream(t)
	f := NewHTTPFetcher(5 * time.Second)

	resp, err := f.Fetch(context.Background(), Request{Method: http.MethodGet, URL: up.URL + "/manifest.json"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"name":"tractorlog"}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp, err = f.Fetch(context.Background(), Request{URL: up.URL + "/nope"})
	require.NoError(t, err, "HTTP error statuses are responses, not failures")
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestHTTPFetcher_NetworkFailure(t *testing.T) {
	up := newUpstream(t)
	addr := up.URL
	up.Close()

	_, err := NewHTTPFetcher(time.Second).Fetch(context.Background(), Request{URL: addr + "/"})
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestHTTPFetcher_CancelledContext(t *testing.T) {
	up := newUpstream(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPFetcher(time.Second).Fetch(ctx, Request{URL: up.URL + "/"})
	assert.ErrorIs(t, err, ErrNetwork)
}
