// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"

	"github.com/parlor-chat/parlor/internal/config"
	"github.com/parlor-chat/parlor/internal/logging"
)

// ConnConfig holds the NATS connection settings shared by publishers and
// subscribers.
type ConnConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// ConnConfigFrom derives connection settings from the service configuration.
// url overrides cfg.URL when set, which is how callers point clients at an
// embedded server.
func ConnConfigFrom(cfg config.NATSConfig, url string) ConnConfig {
	if url == "" {
		url = cfg.URL
	}
	return ConnConfig{
		URL:           url,
		MaxReconnects: cfg.MaxReconnects,
		ReconnectWait: cfg.ReconnectWait,
	}
}

// natsOptions returns connection options with reconnection handling.
func (c ConnConfig) natsOptions(role string, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("parlor-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(c.MaxReconnects),
		natsgo.ReconnectWait(c.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"role": role})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"role": role,
				"url":  nc.ConnectedUrl(),
			})
		}),
	}
}

// newLogger routes Watermill's logs through the service logger.
func newLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger()).With(watermill.LogFields{"component": "events"})
}
