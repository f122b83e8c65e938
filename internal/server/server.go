package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/merosman91/Agricultural-Tractor/internal/offline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies forwarded upstream.
const maxBodyBytes = 10 << 20

// Options configures the offline proxy. The upstream origin comes from the
// manager's registered config.
type Options struct {
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
}

type handler struct {
	mgr    *offline.Manager
	logger *zap.Logger
}

// NewRouter serves control endpoints under /-/ and proxies everything else
// through the cache manager.
func NewRouter(mgr *offline.Manager, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{mgr: mgr, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/-/offline/state", h.state).Methods(http.MethodGet)
	r.HandleFunc("/-/offline/skip-waiting", h.skipWaiting).Methods(http.MethodPost)
	r.HandleFunc("/-/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.PathPrefix("/").HandlerFunc(h.proxy)

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	})
	return c.Handler(r)
}

type stateResponse struct {
	Active  *offline.Snapshot `json:"active"`
	Waiting *offline.Snapshot `json:"waiting"`
	Regions []string          `json:"regions"`
}

func (h *handler) state(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{Regions: []string{}}
	if gen := h.mgr.Active(); gen != nil {
		snap := gen.Snapshot()
		resp.Active = &snap
	}
	if gen := h.mgr.Waiting(); gen != nil {
		snap := gen.Snapshot()
		resp.Waiting = &snap
	}
	regions, err := h.mgr.Regions(r.Context())
	if err != nil {
		h.logger.Error("listing cache regions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "listing cache regions failed"})
		return
	}
	if regions != nil {
		resp.Regions = regions
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) skipWaiting(w http.ResponseWriter, r *http.Request) {
	err := h.mgr.SkipWaiting(r.Context())
	switch {
	case errors.Is(err, offline.ErrNoWaitingGeneration):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		h.logger.Error("skip waiting", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handler) proxy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}
	target, err := h.mgr.ResolveURL(r.URL.RequestURI())
	if err != nil {
		http.Error(w, "invalid request URL", http.StatusBadRequest)
		return
	}
	req := offline.Request{
		Method: r.Method,
		URL:    target,
		Header: r.Header.Clone(),
		Body:   body,
	}
	intercepted := h.mgr.Intercepts(req)

	resp, err := h.mgr.Handle(r.Context(), req)
	if err != nil {
		h.logger.Warn("upstream unreachable", zap.String("method", r.Method), zap.String("url", req.URL), zap.Error(err))
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if intercepted {
		if resp.FromCache {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
	}
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("offline proxy listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("offline proxy shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
