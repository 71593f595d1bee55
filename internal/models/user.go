// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package models

import (
	"errors"
	"time"
)

// ErrUserNotFound is returned by user stores when no record exists for an id.
var ErrUserNotFound = errors.New("user not found")

// User is the stored principal. SessionID is rotated on login and logout;
// a connection is only accepted while the id it presents matches.
type User struct {
	ID        string    `json:"id" validate:"required,max=128"`
	Username  string    `json:"username" validate:"required,max=64"`
	SessionID string    `json:"sessionId"`
	IsOnline  bool      `json:"isOnline"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserRef is the public projection of a user embedded in wire payloads.
type UserRef struct {
	ID       string `json:"id" msgpack:"id"`
	Username string `json:"username" msgpack:"username"`
}

// Ref returns the public projection of u.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}

// SessionInvalidation is published whenever a user's session id changes.
type SessionInvalidation struct {
	UserID    string    `json:"userId" validate:"required"`
	SessionID string    `json:"sessionId"`
	RotatedAt time.Time `json:"rotatedAt"`
}
