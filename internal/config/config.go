// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package config

import (
	"fmt"
	"time"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Gateway    GatewayConfig    `koanf:"gateway"`
	Store      StoreConfig      `koanf:"store"`
	NATS       NATSConfig       `koanf:"nats"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `koanf:"environment" validate:"oneof=development staging production"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GatewayConfig configures channel defaults and per-connection behaviour.
type GatewayConfig struct {
	// PresenceChannel carries online/offline notifications. Every connection
	// joins it on authentication.
	PresenceChannel string `koanf:"presence_channel" validate:"required,channel"`

	// DefaultChannels are joined on authentication in addition to PresenceChannel.
	DefaultChannels []string `koanf:"default_channels" validate:"dive,channel"`

	// ScopedPresencePrefixes selects the channels that also receive a user's
	// offline event when they were subscribed at disconnect.
	ScopedPresencePrefixes []string `koanf:"scoped_presence_prefixes"`

	SendQueueSize  int           `koanf:"send_queue_size" validate:"gte=1,lte=65536"`
	MaxMessageSize int64         `koanf:"max_message_size" validate:"gte=512"`
	WriteWait      time.Duration `koanf:"write_wait" validate:"gt=0"`
	PongWait       time.Duration `koanf:"pong_wait" validate:"gt=0"`
	PingPeriod     time.Duration `koanf:"ping_period" validate:"gt=0"`
	AuthTimeout    time.Duration `koanf:"auth_timeout" validate:"gt=0"`

	// ForceCloseOnInvalidation closes live connections whose session id was
	// rotated. When false, such connections stay active until they disconnect.
	ForceCloseOnInvalidation bool `koanf:"force_close_on_invalidation"`
}

// StoreConfig configures the Badger user store.
type StoreConfig struct {
	Path     string        `koanf:"path"`
	InMemory bool          `koanf:"in_memory"`
	Breaker  BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker around user lookups.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests" validate:"gte=1"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gte=1"`
}

// NATSConfig configures session invalidation events.
type NATSConfig struct {
	Enabled             bool          `koanf:"enabled"`
	URL                 string        `koanf:"url"`
	Embedded            bool          `koanf:"embedded"`
	EmbeddedHost        string        `koanf:"embedded_host"`
	EmbeddedPort        int           `koanf:"embedded_port" validate:"gte=-1,lte=65535"`
	InvalidationSubject string        `koanf:"invalidation_subject" validate:"required"`
	MaxReconnects       int           `koanf:"max_reconnects"`
	ReconnectWait       time.Duration `koanf:"reconnect_wait"`
}

// SecurityConfig configures CORS, rate limiting and admin authentication.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// AdminJWTSecret signs admin bearer tokens (HS256). The admin API is not
	// mounted when empty.
	AdminJWTSecret string `koanf:"admin_jwt_secret"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig configures the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// InitialChannels returns the channels every authenticated connection joins,
// presence first, without duplicates.
func (g GatewayConfig) InitialChannels() []string {
	out := make([]string, 0, len(g.DefaultChannels)+1)
	seen := make(map[string]struct{}, len(g.DefaultChannels)+1)
	for _, ch := range append([]string{g.PresenceChannel}, g.DefaultChannels...) {
		if _, dup := seen[ch]; dup || ch == "" {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}
