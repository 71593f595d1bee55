// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package config

import (
	"errors"
	"fmt"

	"github.com/parlor-chat/parlor/internal/validation"
)

// MinAdminSecretLength is the shortest accepted admin JWT secret.
const MinAdminSecretLength = 32

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks struct tags and the rules that span fields.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, verr.Error())
	}

	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateGateway() error {
	if c.Gateway.PingPeriod >= c.Gateway.PongWait {
		return fmt.Errorf("%w: gateway.ping_period (%v) must be shorter than gateway.pong_wait (%v)",
			ErrInvalidConfig, c.Gateway.PingPeriod, c.Gateway.PongWait)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !c.NATS.Embedded && c.NATS.URL == "" {
		return fmt.Errorf("%w: nats.url is required when nats is enabled and not embedded", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.AdminJWTSecret != "" && len(c.Security.AdminJWTSecret) < MinAdminSecretLength {
		return fmt.Errorf("%w: security.admin_jwt_secret must be at least %d characters",
			ErrInvalidConfig, MinAdminSecretLength)
	}
	if c.Server.Environment == "production" && c.Store.InMemory {
		return fmt.Errorf("%w: store.in_memory is not allowed in production", ErrInvalidConfig)
	}
	return nil
}
