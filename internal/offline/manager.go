package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// InstallPolicy decides what a failed manifest entry does to an install.
type InstallPolicy string

const (
	// PolicyBestEffort skips failed entries and reports them.
	PolicyBestEffort InstallPolicy = "best-effort"
	// PolicyStrict fails the whole install on any failed entry.
	PolicyStrict InstallPolicy = "strict"
)

// Config describes one cache generation.
type Config struct {
	// Version names the cache region, e.g. "tractorlog-v2". Bumping it is the
	// only way stale entries are evicted.
	Version string
	// Origin resolves relative manifest entries and request paths.
	Origin string
	// Manifest lists the URLs pre-cached on install.
	Manifest []string
	// EntryPoint is served for navigations when the network is down.
	EntryPoint string
	Policy     InstallPolicy
	// WaitForSkip keeps an installed generation waiting until SkipWaiting is
	// called. By default a successful install activates immediately.
	WaitForSkip bool
}

// Manager owns the cache generations and intercepts fetches through the
// active one. It is safe for concurrent use.
type Manager struct {
	storage Storage
	fetcher Fetcher
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time

	// mu guards the generation pointers and serializes activation against
	// write-through so no entry lands in a region being deleted.
	mu      sync.RWMutex
	active  *Generation
	waiting *Generation
	origin  string
	entry   string
}

type ManagerOption func(*Manager)

func WithMetrics(m *Metrics) ManagerOption {
	return func(mgr *Manager) { mgr.metrics = m }
}

func WithManagerLogger(l *zap.Logger) ManagerOption {
	return func(mgr *Manager) {
		if l != nil {
			mgr.logger = l
		}
	}
}

func WithManagerClock(now func() time.Time) ManagerOption {
	return func(mgr *Manager) { mgr.now = now }
}

func NewManager(storage Storage, fetcher Fetcher, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage: storage,
		fetcher: fetcher,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	return m
}

// Register installs a new generation and, unless cfg.WaitForSkip is set,
// activates it. The returned generation reflects where it ended up; on a
// failed install it is Redundant and the previous generation keeps serving.
// When nothing is active yet and storage already holds a region under
// cfg.Version, that region is adopted as the active generation instead.
func (m *Manager) Register(ctx context.Context, cfg Config) (*Generation, error) {
	if cfg.Version == "" {
		return nil, errors.New("cache version must not be empty")
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyBestEffort
	}

	manifest := make([]string, 0, len(cfg.Manifest))
	for _, raw := range cfg.Manifest {
		abs, err := resolve(cfg.Origin, raw)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %q: %w", raw, err)
		}
		manifest = append(manifest, abs)
	}
	entry := ""
	if cfg.EntryPoint != "" {
		var err error
		if entry, err = resolve(cfg.Origin, cfg.EntryPoint); err != nil {
			return nil, fmt.Errorf("entry point %q: %w", cfg.EntryPoint, err)
		}
	}

	m.mu.Lock()
	m.origin = cfg.Origin
	m.entry = entry
	m.mu.Unlock()

	gen := newGeneration(cfg.Version, manifest, m.now())
	reused, err := m.install(ctx, gen, cfg.Policy)
	if err != nil {
		if reused {
			m.adopt(ctx, cfg.Version, manifest)
		}
		return gen, err
	}

	m.setWaiting(gen)

	if cfg.WaitForSkip {
		m.mu.RLock()
		hasActive := m.active != nil
		m.mu.RUnlock()
		if hasActive {
			m.logger.Info("cache generation waiting", zap.String("version", gen.Version))
			return gen, nil
		}
	}
	if err := m.activate(ctx, gen); err != nil {
		return gen, err
	}
	return gen, nil
}

func (m *Manager) setWaiting(gen *Generation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waiting != nil && m.waiting != gen {
		_ = m.waiting.transition(StateRedundant, m.now())
	}
	m.waiting = gen
}

// install precaches the manifest into gen's region. reused reports whether
// the region was already in storage before this install; such a region is
// never deleted on failure.
func (m *Manager) install(ctx context.Context, gen *Generation, policy InstallPolicy) (reused bool, err error) {
	if err := gen.transition(StateInstalling, m.now()); err != nil {
		return false, err
	}
	regions, err := m.storage.Regions(ctx)
	if err != nil {
		_ = gen.transition(StateRedundant, m.now())
		return false, fmt.Errorf("listing cache regions: %w", err)
	}
	reused = slices.Contains(regions, gen.Version)
	if err := m.storage.Open(ctx, gen.Version); err != nil {
		_ = gen.transition(StateRedundant, m.now())
		return reused, fmt.Errorf("opening cache region %s: %w", gen.Version, err)
	}

	failed := make(map[string]error)
	for _, u := range gen.Manifest {
		if err := m.precache(ctx, gen.Version, u); err != nil {
			m.metrics.InstallFailures.Inc()
			m.logger.Warn("manifest entry not cached",
				zap.String("version", gen.Version), zap.String("url", u), zap.Error(err))
			failed[u] = err
			if policy == PolicyStrict {
				break
			}
		}
	}

	gen.mu.Lock()
	gen.failed = failed
	gen.mu.Unlock()

	if len(failed) > 0 && policy == PolicyStrict {
		_ = gen.transition(StateRedundant, m.now())
		if !reused {
			if err := m.storage.DeleteRegion(ctx, gen.Version); err != nil {
				m.logger.Warn("removing failed region", zap.String("version", gen.Version), zap.Error(err))
			}
		}
		return reused, &InstallError{Version: gen.Version, Failed: failed}
	}
	if err := gen.transition(StateInstalled, m.now()); err != nil {
		return reused, err
	}
	m.logger.Info("cache generation installed",
		zap.String("version", gen.Version),
		zap.Int("entries", len(gen.Manifest)-len(failed)),
		zap.Int("failed", len(failed)))
	return reused, nil
}

// adopt activates the region an earlier run left under version when no
// generation is serving yet.
func (m *Manager) adopt(ctx context.Context, version string, manifest []string) {
	m.mu.RLock()
	idle := m.active == nil
	m.mu.RUnlock()
	if !idle {
		return
	}

	gen := newGeneration(version, manifest, m.now())
	if err := gen.transition(StateInstalling, m.now()); err != nil {
		return
	}
	if err := gen.transition(StateInstalled, m.now()); err != nil {
		return
	}
	m.setWaiting(gen)
	if err := m.activate(ctx, gen); err != nil {
		m.logger.Warn("adopting cache region", zap.String("version", version), zap.Error(err))
		return
	}
	m.logger.Info("adopted existing cache region", zap.String("version", version))
}

func (m *Manager) precache(ctx context.Context, region, rawURL string) error {
	resp, err := m.fetcher.Fetch(ctx, Request{Method: http.MethodGet, URL: rawURL})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%s: upstream status %d", rawURL, resp.Status)
	}
	resp.StoredAt = m.now()
	if err := m.storage.Put(ctx, region, rawURL, resp); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}
	return nil
}

// SkipWaiting activates the waiting generation.
func (m *Manager) SkipWaiting(ctx context.Context) error {
	m.mu.RLock()
	gen := m.waiting
	m.mu.RUnlock()
	if gen == nil {
		return ErrNoWaitingGeneration
	}
	return m.activate(ctx, gen)
}

// activate deletes every region other than gen's, retires the previous
// generation and makes gen serve all subsequent fetches.
func (m *Manager) activate(ctx context.Context, gen *Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting != gen {
		return fmt.Errorf("%s is not waiting: %w", gen.Version, ErrInvalidTransition)
	}
	if err := gen.transition(StateActivating, m.now()); err != nil {
		return err
	}

	regions, err := m.storage.Regions(ctx)
	if err != nil {
		_ = gen.transition(StateRedundant, m.now())
		m.waiting = nil
		return fmt.Errorf("listing cache regions: %w", err)
	}
	for _, name := range regions {
		if name == gen.Version {
			continue
		}
		if err := m.storage.DeleteRegion(ctx, name); err != nil {
			m.logger.Warn("deleting stale region", zap.String("region", name), zap.Error(err))
			continue
		}
		m.metrics.RegionsDeleted.Inc()
		m.logger.Info("deleted stale cache region", zap.String("region", name))
	}

	if m.active != nil && m.active != gen {
		_ = m.active.transition(StateRedundant, m.now())
	}
	if err := gen.transition(StateActive, m.now()); err != nil {
		return err
	}
	m.active = gen
	m.waiting = nil
	m.metrics.Activations.Inc()
	m.logger.Info("cache generation active", zap.String("version", gen.Version))
	return nil
}

// Active returns the generation serving fetches, or nil.
func (m *Manager) Active() *Generation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Waiting returns the installed generation awaiting activation, or nil.
func (m *Manager) Waiting() *Generation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.waiting
}

// Regions lists the cache regions currently in storage.
func (m *Manager) Regions(ctx context.Context) ([]string, error) {
	return m.storage.Regions(ctx)
}

// ResolveURL turns a request URI received by the proxy into the absolute URL
// used both as the cache key and as the upstream target. It resolves the same
// way manifest entries do, and the result must stay on the origin host.
func (m *Manager) ResolveURL(raw string) (string, error) {
	m.mu.RLock()
	origin := m.origin
	m.mu.RUnlock()
	if origin == "" {
		return "", errors.New("no origin registered")
	}
	abs, err := resolve(origin, raw)
	if err != nil {
		return "", err
	}
	base, _ := url.Parse(origin)
	target, err := url.Parse(abs)
	if err != nil {
		return "", err
	}
	if target.Host != base.Host {
		return "", fmt.Errorf("%q leaves origin %s", raw, base.Host)
	}
	return abs, nil
}

// Intercepts reports whether Handle will serve req through the cache. Other
// requests go straight to the network.
func (m *Manager) Intercepts(req Request) bool {
	return req.method() == http.MethodGet && m.Active() != nil
}

// Handle serves a GET through the active generation: cache first, then the
// network with write-through, then the offline fallbacks. It never returns a
// network error; failures become the entry point, the offline document or a
// 503 response. Requests that are not intercepted are forwarded unchanged and
// their network error is returned.
func (m *Manager) Handle(ctx context.Context, req Request) (*Response, error) {
	m.mu.RLock()
	gen := m.active
	entry := m.entry
	m.mu.RUnlock()

	if req.method() != http.MethodGet || gen == nil {
		m.metrics.Passthrough.Inc()
		return m.fetcher.Fetch(ctx, req)
	}

	if cached, err := m.storage.Match(ctx, gen.Version, req.URL); err == nil {
		m.metrics.CacheHits.Inc()
		cached.FromCache = true
		return cached, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		m.logger.Warn("cache lookup failed", zap.String("url", req.URL), zap.Error(err))
	}
	m.metrics.CacheMisses.Inc()

	resp, err := m.fetcher.Fetch(ctx, req)
	if err != nil {
		m.metrics.NetworkFailures.Inc()
		m.logger.Debug("network fetch failed", zap.String("url", req.URL), zap.Error(err))
		return m.fallback(ctx, gen, entry, req), nil
	}

	if cacheable(req.URL, resp) {
		m.writeThrough(ctx, gen, req.URL, resp)
	}
	return resp, nil
}

// writeThrough stores a snapshot of resp unless gen has been superseded in
// the meantime. Failures are logged and counted only.
func (m *Manager) writeThrough(ctx context.Context, gen *Generation, rawURL string, resp *Response) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active != gen {
		return
	}
	snapshot := resp.Clone()
	snapshot.StoredAt = m.now()
	if err := m.storage.Put(ctx, gen.Version, rawURL, snapshot); err != nil {
		m.metrics.CacheWriteErrors.Inc()
		m.logger.Warn("cache write failed",
			zap.String("url", rawURL), zap.Error(fmt.Errorf("%w: %w", ErrCacheWrite, err)))
	}
}

func (m *Manager) fallback(ctx context.Context, gen *Generation, entry string, req Request) *Response {
	if !req.IsNavigation() {
		m.metrics.OfflineFallbacks.WithLabelValues("unavailable").Inc()
		return unavailable(req.URL)
	}
	if entry != "" {
		if cached, err := m.storage.Match(ctx, gen.Version, entry); err == nil {
			m.metrics.OfflineFallbacks.WithLabelValues("entry_point").Inc()
			cached.FromCache = true
			return cached
		}
	}
	m.metrics.OfflineFallbacks.WithLabelValues("offline_document").Inc()
	return OfflineDocument(m.now())
}

// resolve makes raw absolute against origin. Absolute URLs pass through.
func resolve(origin, raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if origin == "" {
		return u.String(), nil
	}
	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("origin %q: %w", origin, err)
	}
	return base.ResolveReference(u).String(), nil
}
