package offline

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	up      *upstream
	fetcher *switchFetcher
	storage Storage
	metrics *Metrics
	mgr     *Manager
}

func newHarness(t *testing.T, storage Storage) *harness {
	t.Helper()
	if storage == nil {
		storage = NewMemoryStorage()
	}
	h := &harness{
		up:      newUpstream(t),
		fetcher: &switchFetcher{inner: NewHTTPFetcher(5 * time.Second)},
		storage: storage,
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	h.mgr = NewManager(storage, h.fetcher, WithMetrics(h.metrics), WithManagerClock(fixedClock()))
	return h
}

func (h *harness) config(version string, manifest ...string) Config {
	if len(manifest) == 0 {
		manifest = []string{"/", "/index.html", "/manifest.json"}
	}
	return Config{
		Version:    version,
		Origin:     h.up.URL,
		Manifest:   manifest,
		EntryPoint: "/index.html",
	}
}

func (h *harness) url(path string) string {
	return h.up.URL + path
}

func TestRegister_InstallsAndActivates(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	gen, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)
	assert.Equal(t, StateActive, gen.State())
	assert.Same(t, gen, h.mgr.Active())
	assert.Empty(t, gen.FailedEntries())

	regions, err := h.mgr.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v1"}, regions)

	for _, p := range []string{"/", "/index.html", "/manifest.json"} {
		_, err := h.storage.Match(ctx, "tractorlog-v1", h.url(p))
		assert.NoError(t, err, p)
	}
}

func TestVersionBump_DeletesOldRegion(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	v1, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)
	v2, err := h.mgr.Register(ctx, h.config("tractorlog-v2"))
	require.NoError(t, err)

	assert.Equal(t, StateRedundant, v1.State())
	assert.Equal(t, StateActive, v2.State())

	regions, err := h.mgr.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v2"}, regions)
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.RegionsDeleted))
}

func TestActivate_RemovesUnknownRegions(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.storage.Open(ctx, "someone-else"))

	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	regions, err := h.mgr.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v1"}, regions)
}

func TestHandle_CacheFirstSkipsNetwork(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	before := h.up.count(http.MethodGet, "/index.html")
	calls := h.fetcher.calls.Load()

	resp, err := h.mgr.Handle(ctx, navigation(h.url("/index.html")))
	require.NoError(t, err)
	assert.True(t, resp.FromCache)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), "tractorlog app")

	assert.Equal(t, before, h.up.count(http.MethodGet, "/index.html"))
	assert.Equal(t, calls, h.fetcher.calls.Load(), "a cache hit must not touch the network")
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.CacheHits))
}

func TestHandle_MissWritesThrough(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	first, err := h.mgr.Handle(ctx, subresource(h.url("/app.js")))
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, "asset /app.js", string(first.Body))

	second, err := h.mgr.Handle(ctx, subresource(h.url("/app.js")))
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, 1, h.up.count(http.MethodGet, "/app.js"))
}

func TestHandle_ErrorStatusNotCached(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := h.mgr.Handle(ctx, subresource(h.url("/broken")))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.False(t, resp.FromCache)
	}
	assert.Equal(t, 2, h.up.count(http.MethodGet, "/broken"))
}

func TestHandle_OfflineNavigationServesEntryPoint(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)
	h.fetcher.offline.Store(true)

	resp, err := h.mgr.Handle(ctx, navigation(h.url("/records/42")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, resp.FromCache)
	assert.Contains(t, string(resp.Body), "tractorlog app")
}

func TestHandle_OfflineNavigationWithoutEntryPoint(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	cfg := h.config("tractorlog-v1", "/manifest.json")
	_, err := h.mgr.Register(ctx, cfg)
	require.NoError(t, err)
	h.fetcher.offline.Store(true)

	resp, err := h.mgr.Handle(ctx, navigation(h.url("/unseen")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(resp.Body), "You are offline")
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.OfflineFallbacks.WithLabelValues("offline_document")))
}

func TestHandle_OfflineSubresourceIs503(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)
	h.fetcher.offline.Store(true)

	resp, err := h.mgr.Handle(ctx, subresource(h.url("/style.css")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.NetworkFailures))
}

func TestHandle_NonGETPassesThrough(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	req := Request{Method: http.MethodPost, URL: h.url("/api/records"), Body: []byte(`{}`)}
	assert.False(t, h.mgr.Intercepts(req))
	for i := 0; i < 2; i++ {
		resp, err := h.mgr.Handle(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "POST ok", string(resp.Body))
	}
	assert.Equal(t, 2, h.up.count(http.MethodPost, "/api/records"))

	_, err = h.storage.Match(ctx, "tractorlog-v1", h.url("/api/records"))
	assert.ErrorIs(t, err, ErrCacheMiss)

	h.fetcher.offline.Store(true)
	_, err = h.mgr.Handle(ctx, req)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestHandle_BeforeActivationPassesThrough(t *testing.T) {
	h := newHarness(t, nil)
	req := subresource(h.url("/app.js"))
	assert.False(t, h.mgr.Intercepts(req))

	resp, err := h.mgr.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.FromCache)
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.Passthrough))
}

func TestHandle_CacheWriteFailureIsSwallowed(t *testing.T) {
	storage := &failingPutStorage{Storage: NewMemoryStorage()}
	h := newHarness(t, storage)
	ctx := context.Background()
	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)
	storage.armed.Store(true)

	resp, err := h.mgr.Handle(ctx, subresource(h.url("/app.js")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "asset /app.js", string(resp.Body))
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.CacheWriteErrors))
}

func TestInstall_BestEffortSkipsFailures(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	gen, err := h.mgr.Register(ctx, h.config("tractorlog-v1", "/", "/missing.png", "/broken"))
	require.NoError(t, err)
	assert.Equal(t, StateActive, gen.State())
	assert.Equal(t, []string{h.url("/broken"), h.url("/missing.png")}, gen.FailedEntries())
	assert.Equal(t, 2.0, promtest.ToFloat64(h.metrics.InstallFailures))
}

func TestInstall_StrictFailureKeepsPreviousGeneration(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	v1, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	cfg := h.config("tractorlog-v2", "/", "/missing.png")
	cfg.Policy = PolicyStrict
	v2, err := h.mgr.Register(ctx, cfg)
	require.Error(t, err)
	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Contains(t, installErr.Failed, h.url("/missing.png"))

	assert.Equal(t, StateRedundant, v2.State())
	assert.Equal(t, StateActive, v1.State())
	assert.Same(t, v1, h.mgr.Active())

	regions, err := h.mgr.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v1"}, regions)
}

func TestInstall_StrictOfflineFails(t *testing.T) {
	h := newHarness(t, nil)
	h.fetcher.offline.Store(true)

	cfg := h.config("tractorlog-v1")
	cfg.Policy = PolicyStrict
	gen, err := h.mgr.Register(context.Background(), cfg)
	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Len(t, installErr.Failed, 1, "strict install stops at the first failure")
	assert.ErrorIs(t, installErr.Failed[h.url("/")], ErrNetwork)
	assert.Equal(t, StateRedundant, gen.State())
	assert.Nil(t, h.mgr.Active())
}

func TestInstall_StrictRetryOfflineKeepsActiveRegion(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	v1, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)
	h.fetcher.offline.Store(true)

	cfg := h.config("tractorlog-v1")
	cfg.Policy = PolicyStrict
	retry, err := h.mgr.Register(ctx, cfg)
	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Equal(t, StateRedundant, retry.State())
	assert.Same(t, v1, h.mgr.Active())

	regions, err := h.mgr.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v1"}, regions)

	resp, err := h.mgr.Handle(ctx, navigation(h.url("/records")))
	require.NoError(t, err)
	assert.True(t, resp.FromCache)
	assert.Contains(t, string(resp.Body), "tractorlog app")
}

func TestRegister_StrictOfflineRestartAdoptsRegion(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	// A second process over the same storage starts while the network is down.
	h.fetcher.offline.Store(true)
	restarted := NewManager(h.storage, h.fetcher, WithManagerClock(fixedClock()))
	cfg := h.config("tractorlog-v1")
	cfg.Policy = PolicyStrict
	gen, err := restarted.Register(ctx, cfg)
	require.Error(t, err)
	assert.Equal(t, StateRedundant, gen.State())

	active := restarted.Active()
	require.NotNil(t, active)
	assert.Equal(t, "tractorlog-v1", active.Version)
	assert.Equal(t, StateActive, active.State())

	regions, err := restarted.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v1"}, regions)

	cached, err := h.storage.Match(ctx, "tractorlog-v1", h.url("/index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(cached.Body), "tractorlog app")

	resp, err := restarted.Handle(ctx, navigation(h.url("/records")))
	require.NoError(t, err)
	assert.True(t, resp.FromCache)
}

func TestRegister_StrictFailureWithNewVersionDoesNotAdopt(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	h.fetcher.offline.Store(true)
	restarted := NewManager(h.storage, h.fetcher, WithManagerClock(fixedClock()))
	cfg := h.config("tractorlog-v2")
	cfg.Policy = PolicyStrict
	_, err = restarted.Register(ctx, cfg)
	require.Error(t, err)
	assert.Nil(t, restarted.Active())

	regions, err := restarted.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v1"}, regions)
}

func TestResolveURL(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.mgr.ResolveURL("/index.html")
	assert.Error(t, err, "nothing registered yet")

	cfg := h.config("tractorlog-v1")
	cfg.Origin = h.up.URL + "/app/"
	_, err = h.mgr.Register(ctx, cfg)
	require.NoError(t, err)

	got, err := h.mgr.ResolveURL("/index.html")
	require.NoError(t, err)
	assert.Equal(t, h.url("/index.html"), got)
	_, err = h.storage.Match(ctx, "tractorlog-v1", got)
	assert.NoError(t, err, "proxy key matches the manifest key")

	got, err = h.mgr.ResolveURL("/app/page?x=1")
	require.NoError(t, err)
	assert.Equal(t, h.url("/app/page?x=1"), got)

	_, err = h.mgr.ResolveURL("//example.com/steal")
	assert.Error(t, err)
}

func TestWaitForSkip(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, h.mgr.SkipWaiting(ctx), ErrNoWaitingGeneration)

	v1, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	cfg := h.config("tractorlog-v2")
	cfg.WaitForSkip = true
	v2, err := h.mgr.Register(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, StateInstalled, v2.State())
	assert.Same(t, v2, h.mgr.Waiting())
	assert.Same(t, v1, h.mgr.Active())

	regions, err := h.mgr.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v1", "tractorlog-v2"}, regions)

	require.NoError(t, h.mgr.SkipWaiting(ctx))
	assert.Equal(t, StateActive, v2.State())
	assert.Equal(t, StateRedundant, v1.State())
	assert.Nil(t, h.mgr.Waiting())

	regions, err = h.mgr.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v2"}, regions)
}

func TestGenerationSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	gen, err := h.mgr.Register(context.Background(), h.config("tractorlog-v1", "/", "/missing.png"))
	require.NoError(t, err)

	snap := gen.Snapshot()
	assert.Equal(t, "tractorlog-v1", snap.Version)
	assert.Equal(t, StateActive, snap.State)
	assert.Equal(t, []string{h.url("/missing.png")}, snap.Failed)
}

func TestHandle_Concurrent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "/app.js"
			if i%2 == 0 {
				path = "/index.html"
			}
			resp, err := h.mgr.Handle(ctx, subresource(h.url(path)))
			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.Status)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := h.mgr.Register(ctx, h.config("tractorlog-v2"))
		assert.NoError(t, err)
	}()
	wg.Wait()

	regions, err := h.mgr.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tractorlog-v2"}, regions)
}

func TestResponsesAreSnapshots(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.mgr.Register(ctx, h.config("tractorlog-v1"))
	require.NoError(t, err)

	resp, err := h.mgr.Handle(ctx, subresource(h.url("/index.html")))
	require.NoError(t, err)
	resp.Body[0] = 'X'
	resp.Header.Set("Content-Type", "changed")

	again, err := h.mgr.Handle(ctx, subresource(h.url("/index.html")))
	require.NoError(t, err)
	assert.Equal(t, byte('<'), again.Body[0])
	assert.Equal(t, "text/html; charset=utf-8", again.Header.Get("Content-Type"))
}

func TestResolve(t *testing.T) {
	got, err := resolve("http://localhost:3000", "/index.html")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/index.html", got)

	got, err = resolve("http://localhost:3000", "https://cdn.example.com/lib.js")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/lib.js", got)
}

func TestRequestIsNavigation(t *testing.T) {
	assert.True(t, navigation("http://x/").IsNavigation())
	assert.False(t, subresource("http://x/a.js").IsNavigation())

	accept := http.Header{}
	accept.Set("Accept", "text/html")
	assert.True(t, Request{URL: "http://x/", Header: accept}.IsNavigation())
	assert.False(t, Request{Method: http.MethodPost, URL: "http://x/", Header: accept}.IsNavigation())
	assert.False(t, Request{URL: "http://x/"}.IsNavigation())
}

func TestGenerationTransitions(t *testing.T) {
	g := newGeneration("v1", nil, time.Now())
	err := g.transition(StateActive, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateParsed, g.State())

	require.NoError(t, g.transition(StateInstalling, time.Now()))
	require.NoError(t, g.transition(StateRedundant, time.Now()))
	assert.ErrorIs(t, g.transition(StateInstalling, time.Now()), ErrInvalidTransition)
}
