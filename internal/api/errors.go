// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package api

import "errors"

// Admin authentication errors.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrNotAdmin     = errors.New("token does not carry the admin role")
)

// Error codes used in API responses.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeStore        = "STORE_ERROR"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
)
