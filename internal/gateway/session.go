// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/parlor-chat/parlor/internal/models"
)

// Application close codes sent when a connection is rejected at open time.
const (
	CloseAuthRequired   = 4001
	CloseInvalidSession = 4003
)

var (
	// ErrAuthRequired means the connection carried no user or session id.
	ErrAuthRequired = errors.New("authentication required")

	// ErrInvalidSession means the session id did not match the stored one, or
	// the user could not be looked up at all.
	ErrInvalidSession = errors.New("invalid session")
)

// SessionValidator looks up the stored user for a connecting client.
// Implementations return models.ErrUserNotFound for unknown ids.
type SessionValidator interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// ConnectParams are the values a client supplies when opening a connection.
type ConnectParams struct {
	UserID     string
	SessionID  string
	RemoteAddr string
}

// Identity is the principal bound to an authenticated connection. It never
// changes after authentication.
type Identity struct {
	UserID    string
	Username  string
	SessionID string
}

// Ref returns the public projection stamped onto outbound payloads.
func (i Identity) Ref() *models.UserRef {
	return &models.UserRef{ID: i.UserID, Username: i.Username}
}

// Authenticate validates the supplied session against the store. Any lookup
// failure, including an open circuit or a store outage, is reported as
// ErrInvalidSession.
func Authenticate(ctx context.Context, v SessionValidator, userID, sessionID string) (Identity, error) {
	if userID == "" || sessionID == "" {
		return Identity{}, ErrAuthRequired
	}

	user, err := v.GetByID(ctx, userID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if user == nil || user.SessionID == "" {
		return Identity{}, fmt.Errorf("%w: no session on record", ErrInvalidSession)
	}
	if subtle.ConstantTimeCompare([]byte(user.SessionID), []byte(sessionID)) != 1 {
		return Identity{}, fmt.Errorf("%w: session mismatch", ErrInvalidSession)
	}

	return Identity{
		UserID:    user.ID,
		Username:  user.Username,
		SessionID: user.SessionID,
	}, nil
}

// CloseError records the close code a connection was terminated with.
type CloseError struct {
	Code   int
	Reason string
	Err    error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("connection closed (%d %s): %v", e.Code, e.Reason, e.Err)
}

func (e *CloseError) Unwrap() error { return e.Err }

// closeForAuthError maps an Authenticate error to the close frame sent to the client.
func closeForAuthError(err error) *CloseError {
	if errors.Is(err, ErrAuthRequired) {
		return &CloseError{Code: CloseAuthRequired, Reason: "authentication required", Err: err}
	}
	return &CloseError{Code: CloseInvalidSession, Reason: "invalid session", Err: err}
}
