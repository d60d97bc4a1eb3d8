package cycle

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the per-cycle counters exposed through an in-process
// prometheus.Registry. No HTTP server is started; a host process can
// scrape the registry if it chooses, and tests can read the counters
// directly, mirroring the pack's own NikeGunn-tutu scheduler
// instrumentation.
//
// RateLimitPauses is registered, but nothing in this module increments
// it, so it stays at zero. APICallsMade counts a global event sync as one
// call, however many pages that sync fetches.
type Metrics struct {
	Registry *prometheus.Registry

	CyclesRun        prometheus.Counter
	SetsProjected     *prometheus.CounterVec
	APICallsMade      prometheus.Counter
	RateLimitPauses   prometheus.Counter
	CyclesFailed      prometheus.Counter
}

// NewMetrics builds a Metrics bundle registered against a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		CyclesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankproj_cycles_run_total",
			Help: "Number of refresh cycles completed successfully.",
		}),
		SetsProjected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rankproj_sets_projected_total",
			Help: "Number of qualified sets projected, labeled by mode.",
		}, []string{"mode"}),
		APICallsMade: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankproj_api_calls_total",
			Help: "Number of upstream API calls made.",
		}),
		RateLimitPauses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankproj_rate_limit_pauses_total",
			Help: "Number of times the paged event walker paused for the burst rate limit.",
		}),
		CyclesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankproj_cycles_failed_total",
			Help: "Number of refresh cycles aborted before a write.",
		}),
	}

	reg.MustRegister(m.CyclesRun, m.SetsProjected, m.APICallsMade, m.RateLimitPauses, m.CyclesFailed)
	return m
}
