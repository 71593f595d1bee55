// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

// Package logging provides the process-wide zerolog logger used by every Parlor
// component.
//
// The logger emits JSON by default and human-readable console output when
// Format is "console". Call Init once from main after configuration is loaded:
//
//	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
//	logging.Info().Str("addr", addr).Msg("listening")
//
// Gateway code logs through Ctx so that conn_id and user_id follow every line
// written on behalf of a connection:
//
//	ctx = logging.ContextWithConnection(ctx, conn.ID())
//	logging.Ctx(ctx).Debug().Str("channel", ch).Msg("subscribed")
//
// SlogHandler adapts the logger for libraries that only accept *slog.Logger,
// notably the suture supervisor event hook.
//
// Always terminate event chains with Msg or Send; an unterminated chain is
// never written.
package logging
