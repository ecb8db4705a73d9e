// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Store reads, writes and change events
// - Shared observations and their subscribers
// - Stream connections and pushed snapshots
// - REST mutations and API latency
// - Client reconnects, mutation attempts and the circuit breaker
// - Lifecycle state

var (
	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liftsync_store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"operation", "table"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_store_operation_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"operation", "table"},
	)

	StoreChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_store_changes_total",
			Help: "Total number of change events published on the store bus",
		},
		[]string{"table"},
	)

	// Subscription Multiplexer Metrics
	FeedsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftsync_feeds_active",
			Help: "Current number of shared observations (one per distinct query)",
		},
	)

	SubscribersActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "liftsync_subscribers_active",
			Help: "Current number of subscribers by query name",
		},
		[]string{"query"},
	)

	FeedSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_feed_snapshots_total",
			Help: "Total number of snapshots produced by shared observations",
		},
		[]string{"query"},
	)

	// Stream Metrics
	StreamConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftsync_stream_connections_active",
			Help: "Current number of open streaming connections",
		},
	)

	StreamSnapshotsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_stream_snapshots_pushed_total",
			Help: "Total number of snapshot frames written to stream connections",
		},
		[]string{"query"},
	)

	StreamRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_stream_rejections_total",
			Help: "Total number of refused stream subscriptions",
		},
		[]string{"reason"}, // bad_request, upgrade, stopping
	)

	StreamDisconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_stream_disconnects_total",
			Help: "Total number of closed stream connections by cause",
		},
		[]string{"cause"}, // client, write_error, source_ended, shutdown
	)

	// Mutation Metrics
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_mutations_total",
			Help: "Total number of REST mutations handled",
		},
		[]string{"entity", "op", "result"},
	)

	MutationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liftsync_mutation_duration_seconds",
			Help:    "Duration of REST mutations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"entity", "op"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liftsync_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftsync_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Client Metrics
	ClientReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_client_reconnects_total",
			Help: "Total number of stream reconnect attempts made by the client",
		},
		[]string{"query"},
	)

	ClientMutationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_client_mutation_attempts_total",
			Help: "Total number of mutation attempts made by the client",
		},
		[]string{"entity", "op", "result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "liftsync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "liftsync_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Lifecycle Metrics
	LifecycleState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftsync_lifecycle_state",
			Help: "Sync server lifecycle state (0=off, 1=starting, 2=on, 3=stopping, 4=unknown, 5=failed)",
		},
	)

	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftsync_lifecycle_transitions_total",
			Help: "Total number of lifecycle state transitions",
		},
		[]string{"to_state"},
	)
)

// RecordStoreOperation records a store operation metric
func RecordStoreOperation(operation, table string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMutation records a handled REST mutation
func RecordMutation(entity, op string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	MutationsTotal.WithLabelValues(entity, op, result).Inc()
	MutationDuration.WithLabelValues(entity, op).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// TrackStreamConnection tracks open streaming connections
func TrackStreamConnection(inc bool) {
	if inc {
		StreamConnectionsActive.Inc()
	} else {
		StreamConnectionsActive.Dec()
	}
}
