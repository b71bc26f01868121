package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Pipeline latency buckets in milliseconds. Detection is regex bound so
	// the interesting range sits far below typical HTTP latency buckets.
	latencyBuckets = []float64{
		0.1, 0.25, 0.5,
		1, 2.5, 5,
		10, 25, 50,
		100, 250, 1000,
	}

	DecisionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptwall_decisions_total",
			Help: "Total number of firewall decisions by action and threat level",
		},
		[]string{"action", "level"},
	)

	DecisionLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "promptwall_decision_latency_ms",
			Help:    "Wall clock latency of the full decision pipeline in milliseconds",
			Buckets: latencyBuckets,
		},
	)

	ScorerFailures = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "promptwall_scorer_failures_total",
			Help: "External scorer calls that failed or timed out and fell back to pattern scoring",
		},
	)

	AuditDropped = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "promptwall_audit_dropped_total",
			Help: "Audit records dropped because the recorder buffer was full",
		},
	)

	AuditWriteErrors = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "promptwall_audit_write_errors_total",
			Help: "Audit sink write failures (request path is unaffected)",
		},
	)

	PolicyReloads = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptwall_policy_reloads_total",
			Help: "Policy rule set reload attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func Initialize() {
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

// Registry exposes the firewall registry for the metrics endpoint
func Registry() *prometheus.Registry {
	return registry
}
