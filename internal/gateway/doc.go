// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

/*
Package gateway implements the real-time channel pub/sub gateway.

A client opens a WebSocket carrying userId and sessionId. The gateway checks the
session against the user store once, then binds an Identity to the connection,
joins it to the presence channel and the default channels, and announces it as
online. From then on the client sends envelopes:

	{"method": "subscribe",   "payload": {"channel": "team:T1"}}
	{"method": "unsubscribe", "payload": {"channel": "team:T1"}}
	{"method": "publish",     "payload": {"channel": "public", "message": "hi"}}

A publish is delivered to every other subscriber of the channel with the
sender's identity and a server timestamp stamped on it; the sender never gets
its own message back. Mistakes are answered with an error envelope on the same
connection:

	{"method": "error", "payload": {"code": "missing_channel", "message": "..."}}

# Lifecycle

Each connection moves Opening -> Authenticated -> Active -> Closed. Closed is
terminal. A failed authentication closes the connection with
CloseAuthRequired (4001) or CloseInvalidSession (4003) before anything is
registered. Every other close, whoever initiates it, goes through one path:
remove all memberships and the identity, then announce the user offline using
the identity captured before removal.

# Concurrency

Each connection has a reader goroutine that handles its envelopes one at a
time, so a client's messages keep their order, and a writer goroutine fed by a
bounded queue. The Registry is guarded by a single RWMutex and never does I/O
under it. Broadcast iterates a snapshot of the subscriber set and never blocks:
a closed subscriber or a full queue is skipped.

# Wire formats

JSON text frames by default; MessagePack binary frames when the client asks
for the "parlor.msgpack" subprotocol. Broadcast encodes each message once per
format in use.
*/
package gateway
