// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

/*
Package metrics provides Prometheus instrumentation for Parlor.

All collectors are registered on the default registry through promauto and are
exposed at /metrics by the API router:

	curl http://localhost:8080/metrics

# Available Metrics

Gateway:
  - gateway_connections, gateway_channels: registry size
  - gateway_auth_failures_total{reason}: rejected connections
  - gateway_envelopes_received_total{method}
  - gateway_protocol_errors_total{code}
  - gateway_messages_delivered_total, gateway_broadcast_fanout
  - gateway_messages_dropped_total{reason}: skipped subscribers
  - gateway_presence_events_total{state}
  - gateway_forced_closes_total{reason}

Transport: websocket_messages_sent_total, websocket_messages_received_total,
websocket_errors_total{error_type}.

API: api_requests_total, api_request_duration_seconds, api_active_requests,
api_rate_limit_hits_total.

Store: store_operation_duration_seconds, store_errors_total, and the
circuit_breaker_* family for the lookup breaker.

NATS: nats_messages_published_total, nats_messages_consumed_total,
nats_messages_parse_failed_total.
*/
package metrics
