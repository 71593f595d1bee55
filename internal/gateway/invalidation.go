// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package gateway

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/metrics"
	"github.com/parlor-chat/parlor/internal/models"
	"github.com/parlor-chat/parlor/internal/validation"
)

// InvalidateSession handles a session rotation for userID. With
// force_close_on_invalidation enabled, every live connection of the user that
// authenticated with a different session id is closed with
// CloseInvalidSession. Otherwise the connections stay active until they
// disconnect on their own, and nothing is closed.
//
// It returns the number of connections closed.
func (g *Gateway) InvalidateSession(userID, currentSessionID string) int {
	conns := g.registry.ConnectionsOf(userID)
	if !g.cfg.ForceCloseOnInvalidation {
		if len(conns) > 0 {
			logging.Debug().Str("user_id", userID).Int("connections", len(conns)).
				Msg("session rotated, live connections kept until they disconnect")
		}
		return 0
	}

	closed := 0
	for _, conn := range conns {
		identity, ok := g.registry.Lookup(conn)
		if !ok || identity.SessionID == currentSessionID {
			continue
		}
		metrics.RecordForcedClose("session_invalidated")
		conn.shutdown(CloseInvalidSession, "session invalidated")
		closed++
	}

	if closed > 0 {
		logging.Info().Str("user_id", userID).Int("closed", closed).Msg("closed connections with invalidated session")
	}
	return closed
}

// InvalidationSource delivers raw session invalidation events.
type InvalidationSource interface {
	// Subscribe returns a channel of message payloads for subject.
	Subscribe(ctx context.Context, subject string) (<-chan []byte, error)
	// Close releases resources.
	Close() error
}

// InvalidationListener feeds session invalidation events into a gateway.
type InvalidationListener struct {
	gateway *Gateway
	source  InvalidationSource
	subject string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewInvalidationListener creates a listener for subject.
func NewInvalidationListener(g *Gateway, source InvalidationSource, subject string) *InvalidationListener {
	return &InvalidationListener{
		gateway: g,
		source:  source,
		subject: subject,
	}
}

// Start subscribes and begins processing events in the background.
func (l *InvalidationListener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return nil
	}

	messages, err := l.source.Subscribe(ctx, l.subject)
	if err != nil {
		return err
	}

	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	l.running = true
	go l.processMessages(ctx, messages, l.stopCh, l.doneCh)

	logging.Info().Str("subject", l.subject).Msg("session invalidation listener started")
	return nil
}

// Stop stops processing and waits for the worker to exit.
func (l *InvalidationListener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	stopCh, doneCh := l.stopCh, l.doneCh
	l.mu.Unlock()

	close(stopCh)
	<-doneCh
	logging.Info().Str("subject", l.subject).Msg("session invalidation listener stopped")
}

// Done is closed when the worker exits, either through Stop, context
// cancellation or the source closing its channel.
func (l *InvalidationListener) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doneCh
}

func (l *InvalidationListener) processMessages(ctx context.Context, messages <-chan []byte, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case data, ok := <-messages:
			if !ok {
				return
			}
			l.handleMessage(data)
		}
	}
}

func (l *InvalidationListener) handleMessage(data []byte) {
	metrics.RecordNATSConsume()

	var event models.SessionInvalidation
	if err := json.Unmarshal(data, &event); err != nil {
		metrics.RecordNATSParseFailed()
		logging.Warn().Err(err).Msg("failed to unmarshal session invalidation")
		return
	}
	if verr := validation.ValidateStruct(&event); verr != nil {
		metrics.RecordNATSParseFailed()
		logging.Warn().Str("error", verr.Error()).Msg("invalid session invalidation event")
		return
	}

	l.gateway.InvalidateSession(event.UserID, event.SessionID)
}
