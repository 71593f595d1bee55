// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parlor-chat/parlor/internal/gateway"
	"github.com/parlor-chat/parlor/internal/logging"
)

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		Subprotocols:     gateway.Subprotocols,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. Requests
// without an Origin header come from non-browser clients and are allowed; the
// session check still applies to them.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the request and hands the connection to the gateway for
// its whole lifetime. Credentials are the userId and sessionId query
// parameters; a missing or stale pair is answered with a close frame after the
// upgrade.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if !h.gateway.Accepting() {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "Gateway shutting down", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug().Err(err).Msg("WebSocket upgrade error")
		return
	}

	q := r.URL.Query()
	_ = h.gateway.Serve(r.Context(), conn, gateway.ConnectParams{
		UserID:     q.Get("userId"),
		SessionID:  q.Get("sessionId"),
		RemoteAddr: r.RemoteAddr,
	})
}
