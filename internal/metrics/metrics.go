// Package metrics defines the client's Prometheus collectors.
//
// Collectors register with the default registry; cmd/crms exposes them on
// METRICS_ADDR when it is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crms"

// Transport metrics
var (
	TransportRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_requests_total",
			Help:      "Total number of backend requests",
		},
		[]string{"endpoint", "status_code"},
	)

	TransportRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transport_request_duration_seconds",
			Help:      "Backend request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	TransportRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transport_requests_in_flight",
			Help:      "Current number of backend requests awaiting a response",
		},
	)
)

// Gateway metrics
var (
	GatewayCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_calls_total",
			Help:      "Total number of gateway operations by outcome",
		},
		[]string{"operation", "status"},
	)

	// IntegrityEventsTotal counts malformed responses, as distinct from
	// empty ones.
	IntegrityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_events_total",
			Help:      "Total number of records dropped from malformed backend responses",
		},
		[]string{"entity", "reason"},
	)
)

// Client state metrics
var (
	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Total number of blocked submissions",
		},
		[]string{"entity", "source"}, // source: "local" or "server"
	)

	SearchTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_transitions_total",
			Help:      "Total number of search slot state transitions",
		},
		[]string{"slot", "state"},
	)

	SessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Total number of session state transitions",
		},
		[]string{"state"},
	)
)

// Task queue metrics
var (
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Total number of queued tasks processed",
		},
		[]string{"task", "status"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Queued task execution time distribution",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"task"},
	)
)
