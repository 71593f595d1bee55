// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parlor-chat/parlor/internal/logging"
)

// AdminRole is the role claim required on admin routes.
const AdminRole = "admin"

// AdminClaims are the claims of an admin bearer token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type adminContextKey struct{}

// AdminAuth validates HS256 bearer tokens against a shared secret.
type AdminAuth struct {
	secret []byte
}

// NewAdminAuth returns an authenticator for secret, which must not be empty.
func NewAdminAuth(secret string) (*AdminAuth, error) {
	if secret == "" {
		return nil, fmt.Errorf("admin JWT secret is required but was empty")
	}
	return &AdminAuth{secret: []byte(secret)}, nil
}

// IssueToken signs a token for subject with the given role, valid for ttl.
func (a *AdminAuth) IssueToken(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and requires the admin role.
func (a *AdminAuth) ValidateToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Role != AdminRole {
		return claims, ErrNotAdmin
	}
	return claims, nil
}

// Middleware rejects requests without a valid admin token: 401 when the token
// is missing or invalid, 403 when it lacks the admin role.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, ErrMissingToken.Error(), nil)
			return
		}

		claims, err := a.ValidateToken(tokenString)
		switch {
		case errors.Is(err, ErrNotAdmin):
			logging.Ctx(r.Context()).Warn().Str("subject", claims.Subject).Msg("admin route called without admin role")
			respondError(w, r, http.StatusForbidden, ErrCodeForbidden, ErrNotAdmin.Error(), nil)
			return
		case err != nil:
			logging.Ctx(r.Context()).Debug().Err(err).Msg("admin token rejected")
			respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminFromContext returns the claims of the authenticated admin.
func AdminFromContext(ctx context.Context) (*AdminClaims, bool) {
	claims, ok := ctx.Value(adminContextKey{}).(*AdminClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
