// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

/*
Package store persists users and their current session identifiers.

BadgerUserStore keeps one JSON record per user under the "user:" key prefix in a
BadgerDB instance. It is the gateway's session validator: a connection is
accepted only while the session id it presents matches the stored one, and
rotating the session (RotateSession) invalidates every credential issued for the
previous value.

BreakerValidator wraps any lookup with a sony/gobreaker circuit breaker so a
failing store rejects connections quickly instead of stalling every handshake.
A not-found result is a normal answer and never trips the breaker.

	db, err := store.Open(cfg.Store)
	if err != nil {
	    return err
	}
	defer db.Close()

	validator := store.NewBreakerValidator(db, cfg.Store.Breaker)
*/
package store
