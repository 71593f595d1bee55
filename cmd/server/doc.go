// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

/*
Package main is the entry point for the Parlor server.

Parlor is a real-time channel gateway: authenticated websocket clients
subscribe to named channels and publish messages that are fanned out to every
other subscriber, with presence notifications when users come and go.

# Application Architecture

	RootSupervisor ("parlor")
	├── GatewaySupervisor ("gateway-layer")
	│   ├── Gateway (closes live connections on shutdown)
	│   └── NATS components (optional, nats.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (/ws, health, admin, metrics)

Component initialization order:

 1. Configuration: koanf v2 with defaults, config file and environment
 2. Logging: zerolog with JSON/console output modes
 3. User store: BadgerDB, online flags reset at startup
 4. Session validation: gobreaker circuit around store lookups
 5. Gateway: registry, broadcast and presence
 6. NATS (optional): embedded server, Watermill publisher and listener
 7. Admin auth: HS256 bearer tokens when security.admin_jwt_secret is set
 8. Supervisor tree and HTTP server

# Signal Handling

SIGINT and SIGTERM cancel the root context. Every websocket connection is
closed with 1001 (going away) and emits its offline presence while the
HTTP server drains. NATS resources and the store are released once the
supervisor tree has stopped.

# Example Usage

	export STORE_PATH=/var/lib/parlor
	export ADMIN_JWT_SECRET=$(openssl rand -base64 32)
	./parlor

Sharing session invalidation with other instances through an external NATS
server:

	export NATS_EMBEDDED=false
	export NATS_URL=nats://nats:4222
	export FORCE_CLOSE_ON_INVALIDATION=true
	./parlor
*/
package main
