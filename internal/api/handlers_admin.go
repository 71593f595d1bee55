// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/models"
	"github.com/parlor-chat/parlor/internal/validation"
)

// UpsertUserRequest is the body of PUT /users/{id}.
type UpsertUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
}

// userIDParam validates the {id} path parameter.
type userIDParam struct {
	ID string `json:"id" validate:"required,max=128,printascii"`
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := userIDParam{ID: chi.URLParam(r, "id")}
	if verr := validation.ValidateStruct(&p); verr != nil {
		respondValidation(w, r, verr)
		return "", false
	}
	return p.ID, true
}

// UpsertUser creates a user or renames an existing one. A new user gets a
// fresh session id.
func (h *Handler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req UpsertUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Upsert(r.Context(), id, req.Username)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeStore, "Failed to save user", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, user)
}

// GetUser returns the stored user record, including the current session id.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if errors.Is(err, models.ErrUserNotFound) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "User not found", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeStore, "Failed to load user", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, user)
}

// RotateSession replaces the user's session id and announces the rotation.
// New connections with the old id are rejected from now on; live ones are
// closed only when force_close_on_invalidation is enabled.
func (h *Handler) RotateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.users.RotateSession(r.Context(), id)
	if errors.Is(err, models.ErrUserNotFound) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "User not found", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeStore, "Failed to rotate session", err)
		return
	}

	event := models.SessionInvalidation{
		UserID:    user.ID,
		SessionID: user.SessionID,
		RotatedAt: time.Now().UTC(),
	}
	h.announceRotation(r, event)

	respondSuccess(w, r, http.StatusOK, event)
}

// announceRotation publishes the rotation to every instance. Without a
// publisher, or when publishing fails, the local gateway is told directly.
func (h *Handler) announceRotation(r *http.Request, event models.SessionInvalidation) {
	log := logging.Ctx(r.Context())
	if h.publisher != nil {
		err := h.publisher.PublishInvalidation(r.Context(), event)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("user_id", event.UserID).Msg("failed to publish session invalidation, applying locally")
	}
	closed := h.gateway.InvalidateSession(event.UserID, event.SessionID)
	log.Info().Str("user_id", event.UserID).Int("closed", closed).Msg("session rotated")
}

// Stats returns registry counts and per-channel subscriber counts.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.gateway.Stats())
}
