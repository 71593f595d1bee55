// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

/*
Package supervisor provides process supervision for Parlor using suture v4.

The tree organizes services into two layers for failure isolation:

	RootSupervisor ("parlor")
	├── GatewaySupervisor ("gateway-layer")
	│   ├── GatewayService          closes live connections on shutdown
	│   └── NATSComponentsService   session invalidation listener (if nats.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A failing invalidation listener is restarted without touching the HTTP
server, and an HTTP listener failure does not drop established websocket
connections, which live outside net/http once hijacked.

Supervisor events are logged through sutureslog, bridged to zerolog by
logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	tree.AddGatewayService(services.NewGatewayService(gw))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
