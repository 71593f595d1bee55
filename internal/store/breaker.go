// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package store

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/parlor-chat/parlor/internal/config"
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/metrics"
	"github.com/parlor-chat/parlor/internal/models"
)

// UserLookup is the read side of a user store.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// BreakerValidator guards a UserLookup with a circuit breaker. While the
// circuit is open every lookup fails immediately with gobreaker.ErrOpenState,
// which the gateway treats as an invalid session.
type BreakerValidator struct {
	lookup UserLookup
	cb     *gobreaker.CircuitBreaker[*models.User]
	name   string
}

// NewBreakerValidator wraps lookup. The circuit opens after
// cfg.FailureThreshold consecutive store failures.
func NewBreakerValidator(lookup UserLookup, cfg config.BreakerConfig) *BreakerValidator {
	cbName := "user-store"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[*models.User](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= threshold
			if shouldTrip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening user store circuit")
			}
			return shouldTrip
		},

		// A missing user is an answer, not a store failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, models.ErrUserNotFound)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := from.String()
			toStr := to.String()

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] User store state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerValidator{lookup: lookup, cb: cb, name: cbName}
}

// GetByID looks the user up through the circuit breaker.
func (b *BreakerValidator) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := b.cb.Execute(func() (*models.User, error) {
		return b.lookup.GetByID(ctx, id)
	})

	switch {
	case err == nil, errors.Is(err, models.ErrUserNotFound):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		logging.Warn().Err(err).Str("user_id", id).Msg("[CIRCUIT BREAKER] User lookup rejected")
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
	}

	if err != nil {
		return nil, err
	}
	return user, nil
}

// State returns the current circuit state.
func (b *BreakerValidator) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
