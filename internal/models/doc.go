// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

/*
Package models defines the data structures shared across Parlor.

Key Components:

  - User: the stored principal the gateway authenticates against (id, username,
    current session identifier, online flag)
  - SessionInvalidation: the event published when a user's session is rotated
  - APIResponse / APIError / Metadata: the HTTP response wrapper used by the
    health and admin endpoints

The gateway never trusts user data coming from the wire. A User is only ever
read from the store, and the identity bound to a connection is derived from it.
*/
package models
