// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/parlor-chat/parlor/internal/metrics"
	"github.com/parlor-chat/parlor/internal/models"
	"github.com/parlor-chat/parlor/internal/validation"
)

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// Publisher publishes session invalidation events.
type Publisher struct {
	publisher message.Publisher
	subject   string
	logger    watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects a publisher for subject.
func NewPublisher(cfg ConnConfig, subject string) (*Publisher, error) {
	logger := newLogger()

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: cfg.natsOptions("publisher", logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &Publisher{
		publisher: pub,
		subject:   subject,
		logger:    logger,
	}, nil
}

// PublishInvalidation announces that event.UserID now holds event.SessionID.
func (p *Publisher) PublishInvalidation(ctx context.Context, event models.SessionInvalidation) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if verr := validation.ValidateStruct(&event); verr != nil {
		return fmt.Errorf("invalid session invalidation: %w", verr)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal session invalidation: %w", err)
	}

	msg := message.NewMessageWithContext(ctx, watermill.NewUUID(), payload)
	msg.Metadata.Set("user_id", event.UserID)

	if err := p.publisher.Publish(p.subject, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	metrics.RecordNATSPublish()
	p.logger.Debug("session invalidation published", watermill.LogFields{
		"user_id":    event.UserID,
		"message_id": msg.UUID,
	})
	return nil
}

// Close releases the connection. Further publishes fail.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
