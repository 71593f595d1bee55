// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

// Package services adapts Parlor components to the suture.Service interface.
//
// Each wrapper translates a component's own start/stop shape into a single
// Serve(ctx) call that blocks until ctx is canceled, so the supervisor tree
// can restart it on failure and stop it on shutdown.
package services
