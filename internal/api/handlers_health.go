// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package api

import (
	"net/http"
	"time"

	"github.com/parlor-chat/parlor/internal/models"
)

// HealthLive reports that the process is up. It never touches dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, models.HealthStatus{
		Status:        "ok",
		Checks:        map[string]string{},
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports whether the instance can accept connections: the store
// answers and the gateway is not shutting down.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"store": "ok", "gateway": "ok"}
	ready := true

	if err := h.users.Ping(r.Context()); err != nil {
		checks["store"] = err.Error()
		ready = false
	}
	if !h.gateway.Accepting() {
		checks["gateway"] = "shutting down"
		ready = false
	}

	health := models.HealthStatus{
		Status:        "ready",
		Checks:        checks,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if !ready {
		health.Status = "not_ready"
		respondJSON(w, r, http.StatusServiceUnavailable, &models.APIResponse{
			Status: "error",
			Data:   health,
			Error:  &models.APIError{Code: ErrCodeUnavailable, Message: "not ready"},
		})
		return
	}
	respondSuccess(w, r, http.StatusOK, health)
}
