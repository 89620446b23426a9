package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VehiclesOnline = promauto.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "fleetctl", Name: "vehicles_online", Help: "Number of vehicles currently tracked, by state"},
		[]string{"city", "state"},
	)

	CoordinatorOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleetctl", Name: "coordinator_ops_total", Help: "Total coordinator operations, by operation and outcome"},
		[]string{"op", "outcome"},
	)

	PolicyViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleetctl", Name: "policy_violations_total", Help: "Total policy gate refusals, by city and gate"},
		[]string{"city", "gate"},
	)

	AuditEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "fleetctl", Name: "audit_entries_total", Help: "Total audit entries successfully appended"},
	)
	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "fleetctl", Name: "audit_write_failures_total", Help: "Total audit append failures"},
	)

	TelemetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: "fleetctl", Name: "telemetry_queue_depth", Help: "Approximate depth of the telemetry ingestion queue"},
	)
	TelemetryEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleetctl", Name: "telemetry_events_total", Help: "Total classified telemetry events, by type"},
		[]string{"event_type"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleetctl", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fleetctl",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
