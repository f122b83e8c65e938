package offline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts interception outcomes.
type Metrics struct {
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	NetworkFailures  prometheus.Counter
	CacheWriteErrors prometheus.Counter
	OfflineFallbacks *prometheus.CounterVec
	Passthrough      prometheus.Counter
	InstallFailures  prometheus.Counter
	RegionsDeleted   prometheus.Counter
	Activations      prometheus.Counter
}

// NewMetrics registers the counters on registry. A nil registry leaves them
// unregistered, which suits tests and embedded use.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_cache_hits_total",
			Help: "GET requests answered from the active cache region",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_cache_misses_total",
			Help: "GET requests not found in the active cache region",
		}),
		NetworkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_network_failures_total",
			Help: "Upstream fetches that failed at the transport level",
		}),
		CacheWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_cache_write_errors_total",
			Help: "Responses that could not be written to the cache",
		}),
		OfflineFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "offline_fallbacks_total",
			Help: "Responses synthesized while offline, by kind",
		}, []string{"kind"}),
		Passthrough: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_passthrough_total",
			Help: "Requests forwarded without cache involvement",
		}),
		InstallFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_install_entry_failures_total",
			Help: "Manifest entries that failed to pre-cache",
		}),
		RegionsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_regions_deleted_total",
			Help: "Stale cache regions removed on activation",
		}),
		Activations: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_activations_total",
			Help: "Cache generations activated",
		}),
	}
}
