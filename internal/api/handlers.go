// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package api

import (
	"context"
	"time"

	"github.com/parlor-chat/parlor/internal/config"
	"github.com/parlor-chat/parlor/internal/gateway"
	"github.com/parlor-chat/parlor/internal/models"
)

// UserStore is the user and session store used by the admin API and the
// readiness check.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, id, username string) (*models.User, error)
	RotateSession(ctx context.Context, id string) (*models.User, error)
	Ping(ctx context.Context) error
}

// InvalidationPublisher fans session rotations out to every gateway instance.
type InvalidationPublisher interface {
	PublishInvalidation(ctx context.Context, event models.SessionInvalidation) error
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_websocket.go: the gateway upgrade endpoint
//   - handlers_health.go: liveness and readiness
//   - handlers_admin.go: user, session and stats endpoints
type Handler struct {
	config    *config.Config
	gateway   *gateway.Gateway
	users     UserStore
	publisher InvalidationPublisher
	startTime time.Time
}

// NewHandler creates a handler. publisher may be nil, in which case session
// rotations are applied to this instance's gateway only.
func NewHandler(cfg *config.Config, g *gateway.Gateway, users UserStore, publisher InvalidationPublisher) *Handler {
	return &Handler{
		config:    cfg,
		gateway:   g,
		users:     users,
		publisher: publisher,
		startTime: time.Now(),
	}
}
