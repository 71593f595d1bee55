// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parlor-chat/parlor/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	adminAuth     *AdminAuth
}

// NewRouter creates a router. adminAuth may be nil, which leaves the admin
// routes unmounted.
func NewRouter(handler *Handler, chiMiddleware *ChiMiddleware, adminAuth *AdminAuth) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: chiMiddleware,
		adminAuth:     adminAuth,
	}
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// The upgrade is rate limited; the connection it opens is not
	// instrumented as an HTTP request.
	r.With(router.chiMiddleware.RateLimit()).Get("/ws", router.handler.WebSocket)

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	if router.adminAuth != nil {
		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(middleware.PrometheusMetrics)
			r.Use(router.adminAuth.Middleware)

			r.Get("/stats", router.handler.Stats)
			r.Put("/users/{id}", router.handler.UpsertUser)
			r.Get("/users/{id}", router.handler.GetUser)
			r.Post("/users/{id}/session", router.handler.RotateSession)
		})
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}
