// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

/*
Package config loads Parlor configuration with Koanf v2.

Configuration is layered, later sources overriding earlier ones:

 1. Defaults from defaultConfig()
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/parlor/config.yaml)
 3. Environment variables listed in envMappings

Only mapped environment variables are honoured, so unrelated variables in the
process environment never leak into the configuration.

Example config.yaml:

	server:
	  port: 8080
	gateway:
	  presence_channel: presence
	  default_channels: [public]
	  force_close_on_invalidation: true
	nats:
	  enabled: true
	  embedded: true

Sections:

  - server: HTTP listener and timeouts
  - gateway: channel defaults, per-connection limits, heartbeat timings
  - store: Badger path and lookup circuit breaker
  - nats: session invalidation events
  - security: CORS, rate limiting, admin JWT secret
  - logging: zerolog level and format
  - supervisor: suture failure thresholds
*/
package config
