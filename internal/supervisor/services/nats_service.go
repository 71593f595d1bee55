// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NATSComponents is the lifecycle of the NATS side of Parlor: the optional
// embedded server, the invalidation subscriber and its listener.
type NATSComponents interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	// Done is closed when the components stop on their own, e.g. the
	// subscription channel closing after a fatal connection error.
	Done() <-chan struct{}
}

// NATSComponentsService supervises NATSComponents.
type NATSComponentsService struct {
	components      NATSComponents
	shutdownTimeout time.Duration
	name            string
}

// NewNATSComponentsService creates a service; zero shutdownTimeout means 10s.
func NewNATSComponentsService(components NATSComponents, shutdownTimeout time.Duration) *NATSComponentsService {
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSComponentsService{
		components:      components,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-components",
	}
}

// ErrComponentsStopped is returned when the components exit without the
// service being stopped; suture restarts the service.
var ErrComponentsStopped = errors.New("nats components stopped unexpectedly")

// Serve starts the components and blocks until ctx is canceled.
func (s *NATSComponentsService) Serve(ctx context.Context) error {
	if err := s.components.Start(ctx); err != nil {
		return fmt.Errorf("start nats components: %w", err)
	}

	var result error
	select {
	case <-ctx.Done():
		result = ctx.Err()
	case <-s.components.Done():
		result = ErrComponentsStopped
	}

	//nolint:contextcheck // parent ctx may be canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.components.Shutdown(shutdownCtx)

	return result
}

// String implements fmt.Stringer for suture logging.
func (s *NATSComponentsService) String() string {
	return s.name
}
