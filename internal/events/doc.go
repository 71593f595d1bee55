// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

// Package events carries session invalidation events between Parlor
// instances over NATS.
//
// When an administrator rotates a user's session id, the instance that handled
// the request publishes a models.SessionInvalidation on the configured subject.
// Every gateway instance subscribes to that subject with a Subscriber, which
// satisfies gateway.InvalidationSource, and decides locally whether to close the
// user's live connections.
//
// Messaging goes through Watermill with its NATS adapter in core (non
// JetStream) mode: invalidations are only meaningful to connections that are
// live right now, so there is no stream to replay and no consumer group. Each
// instance receives every event.
//
// For single-node deployments and tests, EmbeddedServer runs an in-process
// nats-server.
package events
