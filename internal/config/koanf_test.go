// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// isolate points CONFIG_PATH at a missing file and moves into an empty
// directory so no stray config.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Gateway.PresenceChannel != "presence" {
		t.Errorf("Gateway.PresenceChannel = %q, want presence", cfg.Gateway.PresenceChannel)
	}
	if !reflect.DeepEqual(cfg.Gateway.DefaultChannels, []string{"public"}) {
		t.Errorf("Gateway.DefaultChannels = %v, want [public]", cfg.Gateway.DefaultChannels)
	}
	if cfg.Gateway.ForceCloseOnInvalidation {
		t.Error("Gateway.ForceCloseOnInvalidation should be false by default")
	}
	if cfg.Gateway.PongWait != 60*time.Second || cfg.Gateway.PingPeriod != 54*time.Second {
		t.Errorf("heartbeat = %v/%v, want 60s/54s", cfg.Gateway.PongWait, cfg.Gateway.PingPeriod)
	}
	if cfg.NATS.InvalidationSubject != "parlor.session.invalidated" {
		t.Errorf("NATS.InvalidationSubject = %q", cfg.NATS.InvalidationSubject)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "parlor.yaml")
	content := `
server:
  port: 9090
gateway:
  default_channels: [public, lobby]
  force_close_on_invalidation: true
  send_queue_size: 32
nats:
  enabled: false
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Gateway.DefaultChannels, []string{"public", "lobby"}) {
		t.Errorf("DefaultChannels = %v", cfg.Gateway.DefaultChannels)
	}
	if !cfg.Gateway.ForceCloseOnInvalidation {
		t.Error("ForceCloseOnInvalidation should be true from file")
	}
	if cfg.Gateway.SendQueueSize != 32 {
		t.Errorf("SendQueueSize = %d, want 32", cfg.Gateway.SendQueueSize)
	}
	if cfg.NATS.Enabled {
		t.Error("NATS.Enabled should be false from file")
	}
	// Untouched values keep their defaults.
	if cfg.Gateway.PresenceChannel != "presence" {
		t.Errorf("PresenceChannel = %q, want presence", cfg.Gateway.PresenceChannel)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "parlor.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("DEFAULT_CHANNELS", "public, lobby ,")
	t.Setenv("FORCE_CLOSE_ON_INVALIDATION", "true")
	t.Setenv("WS_PONG_WAIT", "30s")
	t.Setenv("WS_PING_PERIOD", "20s")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Gateway.DefaultChannels, []string{"public", "lobby"}) {
		t.Errorf("DefaultChannels = %v", cfg.Gateway.DefaultChannels)
	}
	if !cfg.Gateway.ForceCloseOnInvalidation {
		t.Error("ForceCloseOnInvalidation should be set from env")
	}
	if cfg.Gateway.PongWait != 30*time.Second || cfg.Gateway.PingPeriod != 20*time.Second {
		t.Errorf("heartbeat = %v/%v", cfg.Gateway.PongWait, cfg.Gateway.PingPeriod)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"HTTP_PORT":                   "server.port",
		"NATS_URL":                    "nats.url",
		"FORCE_CLOSE_ON_INVALIDATION": "gateway.force_close_on_invalidation",
		"LOG_LEVEL":                   "logging.level",
		"PATH":                        "",
		"HOME":                        "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad environment", func(c *Config) { c.Server.Environment = "qa" }},
		{"empty presence channel", func(c *Config) { c.Gateway.PresenceChannel = "" }},
		{"bad default channel", func(c *Config) { c.Gateway.DefaultChannels = []string{"has space"} }},
		{"zero queue", func(c *Config) { c.Gateway.SendQueueSize = 0 }},
		{"ping not shorter than pong", func(c *Config) { c.Gateway.PingPeriod = c.Gateway.PongWait }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"short admin secret", func(c *Config) { c.Security.AdminJWTSecret = "short" }},
		{"external nats without url", func(c *Config) {
			c.NATS.Embedded = false
			c.NATS.URL = ""
		}},
		{"in-memory store in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Store.InMemory = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig: %v", err)
			}
		})
	}
}

func TestGatewayConfig_InitialChannels(t *testing.T) {
	g := GatewayConfig{PresenceChannel: "presence", DefaultChannels: []string{"public", "presence", "", "public", "lobby"}}
	got := g.InitialChannels()
	want := []string{"presence", "public", "lobby"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InitialChannels() = %v, want %v", got, want)
	}
}
