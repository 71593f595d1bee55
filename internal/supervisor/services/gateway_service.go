// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package services

import "context"

// ContextRunner is a component whose lifetime is bound to a context.
// *gateway.Gateway satisfies it.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// GatewayService supervises the connection gateway. Connections are served by
// the HTTP layer; this service owns their shutdown, closing every live
// connection with CloseGoingAway when the tree stops.
type GatewayService struct {
	gateway ContextRunner
	name    string
}

// NewGatewayService wraps g.
func NewGatewayService(g ContextRunner) *GatewayService {
	return &GatewayService{
		gateway: g,
		name:    "gateway",
	}
}

// Serve blocks until ctx is canceled.
func (s *GatewayService) Serve(ctx context.Context) error {
	return s.gateway.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logging.
func (s *GatewayService) String() string {
	return s.name
}
