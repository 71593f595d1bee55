// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway Metrics
	GatewayConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_connections",
			Help: "Current number of authenticated gateway connections",
		},
	)

	GatewayChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_channels",
			Help: "Current number of channels with at least one subscriber",
		},
	)

	GatewayAuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_auth_failures_total",
			Help: "Total number of connections rejected at open time",
		},
		[]string{"reason"}, // "auth_required", "invalid_session"
	)

	GatewayEnvelopesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_envelopes_received_total",
			Help: "Total number of decoded inbound envelopes",
		},
		[]string{"method"},
	)

	GatewayProtocolErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_protocol_errors_total",
			Help: "Total number of protocol errors reported to clients",
		},
		[]string{"code"},
	)

	GatewayMessagesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_messages_delivered_total",
			Help: "Total number of outbound envelopes queued to subscribers",
		},
	)

	GatewayMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_messages_dropped_total",
			Help: "Total number of outbound envelopes skipped during broadcast",
		},
		[]string{"reason"}, // "queue_full", "closed", "encode"
	)

	GatewayBroadcastFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_broadcast_fanout",
			Help:    "Number of subscribers reached per broadcast",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	GatewayPresenceEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_presence_events_total",
			Help: "Total number of presence events emitted",
		},
		[]string{"state"}, // "online", "offline"
	)

	GatewayForcedCloses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_forced_closes_total",
			Help: "Total number of connections closed by the server",
		},
		[]string{"reason"}, // "session_invalidated", "orphaned", "shutdown"
	)

	// WebSocket Transport Metrics
	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket frames written",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket frames read",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// User Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of user store operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Total number of failed user store operations",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of session events published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of session events consumed from NATS",
		},
	)

	NATSParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of session events that failed to decode",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetRegistrySize publishes the registry's current connection and channel counts.
func SetRegistrySize(connections, channels int) {
	GatewayConnections.Set(float64(connections))
	GatewayChannels.Set(float64(channels))
}

// RecordAuthFailure records a rejected connection.
func RecordAuthFailure(reason string) {
	GatewayAuthFailures.WithLabelValues(reason).Inc()
}

// RecordEnvelope records an inbound envelope by method.
func RecordEnvelope(method string) {
	GatewayEnvelopesReceived.WithLabelValues(method).Inc()
}

// RecordProtocolError records a protocol error sent back to a client.
func RecordProtocolError(code string) {
	GatewayProtocolErrors.WithLabelValues(code).Inc()
}

// RecordBroadcast records the outcome of a single broadcast.
func RecordBroadcast(delivered int) {
	GatewayMessagesDelivered.Add(float64(delivered))
	GatewayBroadcastFanout.Observe(float64(delivered))
}

// RecordDropped records a subscriber skipped during broadcast.
func RecordDropped(reason string) {
	GatewayMessagesDropped.WithLabelValues(reason).Inc()
}

// RecordPresence records an emitted presence event.
func RecordPresence(online bool) {
	state := "offline"
	if online {
		state = "online"
	}
	GatewayPresenceEvents.WithLabelValues(state).Inc()
}

// RecordForcedClose records a server-initiated close.
func RecordForcedClose(reason string) {
	GatewayForcedCloses.WithLabelValues(reason).Inc()
}

// RecordStoreOperation records a user store call.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(operation).Inc()
	}
}

// RecordNATSPublish records a message being published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed from NATS
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSParseFailed records a message that failed to parse
func RecordNATSParseFailed() {
	NATSParseFailed.Inc()
}
