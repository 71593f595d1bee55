// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

/*
Package middleware provides HTTP middleware shared by the Parlor API.

Key Components:

  - Request ID: UUID-based request tracking, propagated into the logging
    context as the correlation ID
  - Prometheus Metrics: request count, latency and in-flight gauge, labelled
    by chi route pattern so path parameters do not explode cardinality
  - Rate limit reporting: an httprate limit handler that counts rejections

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Get("/stats", handler.Stats)
	})

The websocket endpoint is deliberately left out of PrometheusMetrics: its
"request" lasts as long as the connection, and connection metrics are
recorded by the gateway itself.
*/
package middleware
