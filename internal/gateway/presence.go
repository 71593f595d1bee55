// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package gateway

import (
	"strings"

	"github.com/parlor-chat/parlor/internal/metrics"
)

// announceOnline tells the presence channel that who connected.
func (g *Gateway) announceOnline(who Identity) {
	g.Broadcast(g.cfg.PresenceChannel, presenceEnvelope(g.cfg.PresenceChannel, who, true), nil)
	metrics.RecordPresence(true)
}

// announceOffline tells the presence channel, and every scoped channel the
// connection had joined, that who disconnected. ev is captured before the
// registry entry was removed.
func (g *Gateway) announceOffline(ev eviction) {
	g.Broadcast(g.cfg.PresenceChannel, presenceEnvelope(g.cfg.PresenceChannel, ev.identity, false), nil)
	metrics.RecordPresence(false)

	for _, channel := range ev.channels {
		if channel == g.cfg.PresenceChannel || !g.scopedChannel(channel) {
			continue
		}
		g.Broadcast(channel, presenceEnvelope(channel, ev.identity, false), nil)
	}
}

func (g *Gateway) scopedChannel(channel string) bool {
	for _, prefix := range g.cfg.ScopedPresencePrefixes {
		if strings.HasPrefix(channel, prefix) {
			return true
		}
	}
	return false
}
