// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parlor-chat/parlor/internal/config"
	"github.com/parlor-chat/parlor/internal/events"
	"github.com/parlor-chat/parlor/internal/gateway"
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/supervisor"
	"github.com/parlor-chat/parlor/internal/supervisor/services"
)

// NATSComponents holds the NATS side of the server.
//
// The embedded server and the publisher live for the whole process and are
// released by Close. The subscriber and its listener are created by Start and
// torn down by Shutdown, so the supervisor can restart them independently.
type NATSComponents struct {
	cfg     config.NATSConfig
	gateway *gateway.Gateway
	url     string

	server    *events.EmbeddedServer
	publisher *events.Publisher

	mu         sync.Mutex
	subscriber *events.Subscriber
	listener   *gateway.InvalidationListener
	running    bool
}

// InitNATS builds the NATS components when nats.enabled is set. It returns
// nil components when NATS is disabled; every method is nil-safe.
func InitNATS(cfg *config.Config, gw *gateway.Gateway) (*NATSComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS session invalidation disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	components := &NATSComponents{
		cfg:     cfg.NATS,
		gateway: gw,
		url:     cfg.NATS.URL,
	}

	if cfg.NATS.Embedded {
		server, err := events.NewEmbeddedServer(cfg.NATS.EmbeddedHost, cfg.NATS.EmbeddedPort)
		if err != nil {
			return nil, err
		}
		components.server = server
		components.url = server.ClientURL()
		logging.Info().Str("url", components.url).Msg("Embedded NATS server started")
	} else {
		logging.Info().Str("url", components.url).Msg("Using external NATS server")
	}

	publisher, err := events.NewPublisher(components.connConfig(), cfg.NATS.InvalidationSubject)
	if err != nil {
		components.Close()
		return nil, fmt.Errorf("create invalidation publisher: %w", err)
	}
	components.publisher = publisher
	logging.Info().Str("subject", cfg.NATS.InvalidationSubject).Msg("NATS invalidation publisher created")

	return components, nil
}

func (c *NATSComponents) connConfig() events.ConnConfig {
	return events.ConnConfigFrom(c.cfg, c.url)
}

// Publisher returns the invalidation publisher, or nil when NATS is disabled.
func (c *NATSComponents) Publisher() *events.Publisher {
	if c == nil {
		return nil
	}
	return c.publisher
}

// Start subscribes to invalidation events and feeds them to the gateway.
func (c *NATSComponents) Start(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	subscriber, err := events.NewSubscriber(c.connConfig())
	if err != nil {
		return fmt.Errorf("create invalidation subscriber: %w", err)
	}

	listener := gateway.NewInvalidationListener(c.gateway, subscriber, c.cfg.InvalidationSubject)
	if err := listener.Start(ctx); err != nil {
		if closeErr := subscriber.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Error closing invalidation subscriber")
		}
		return fmt.Errorf("start invalidation listener: %w", err)
	}

	c.subscriber = subscriber
	c.listener = listener
	c.running = true
	return nil
}

// Done is closed when the listener stops. It is nil, and so never ready,
// before Start.
func (c *NATSComponents) Done() <-chan struct{} {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil {
		return nil
	}
	return c.listener.Done()
}

// Shutdown stops the listener and closes the subscriber.
func (c *NATSComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	listener, subscriber := c.listener, c.subscriber
	c.listener, c.subscriber = nil, nil
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		listener.Stop()
		if err := subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing invalidation subscriber")
		}
	}()

	select {
	case <-done:
		logging.Info().Msg("NATS listener stopped")
	case <-ctx.Done():
		logging.Warn().Msg("NATS listener shutdown timed out")
	}
}

// IsRunning reports whether the listener is running.
func (c *NATSComponents) IsRunning() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Close releases the publisher and the embedded server. Call it after the
// supervisor tree has stopped.
func (c *NATSComponents) Close() {
	if c == nil {
		return
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing invalidation publisher")
		}
	}
	if c.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS server shutdown incomplete")
		}
	}
}

// AddNATSToSupervisor adds the NATS components to the gateway layer. It is a
// no-op when NATS is disabled.
func AddNATSToSupervisor(tree *supervisor.SupervisorTree, components *NATSComponents, shutdownTimeout time.Duration) {
	if components == nil {
		return
	}
	tree.AddGatewayService(services.NewNATSComponentsService(components, shutdownTimeout))
	logging.Info().Msg("NATS components added to supervisor tree (gateway layer)")
}
