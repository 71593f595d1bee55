// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

/*
Package api provides the HTTP surface of Parlor.

Routes:

  - GET  /ws                                websocket upgrade into the gateway
  - GET  /api/v1/health/live                liveness
  - GET  /api/v1/health/ready               readiness (store and gateway)
  - GET  /metrics                           Prometheus exposition
  - PUT  /api/v1/admin/users/{id}           create or rename a user
  - GET  /api/v1/admin/users/{id}           read a user record
  - POST /api/v1/admin/users/{id}/session   rotate the user's session id
  - GET  /api/v1/admin/stats                registry counts

The websocket endpoint takes userId and sessionId as query parameters and hands
the upgraded connection to gateway.Gateway.Serve, which owns it from then on.
Authentication failures are reported as websocket close frames (4001, 4003),
not HTTP statuses, so clients see them through their websocket API.

Admin routes require an HS256 bearer token whose role claim is "admin". They
are only mounted when security.admin_jwt_secret is configured.

Every JSON response uses models.APIResponse.
*/
package api
