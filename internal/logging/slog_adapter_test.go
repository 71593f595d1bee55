// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(zerolog.New(&buf))
	logger := slog.New(handler)

	logger.Info("service started", "service", "gateway", "restarts", 2, "backoff", 15*time.Second)

	output := buf.String()
	for _, want := range []string{`"service":"gateway"`, `"restarts":2`, "service started", `"level":"info"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
}

func TestSlogHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, `"level":"debug"`},
		{slog.LevelInfo, `"level":"info"`},
		{slog.LevelWarn, `"level":"warn"`},
		{slog.LevelError, `"level":"error"`},
	}

	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	for _, tt := range tests {
		var buf bytes.Buffer
		handler := NewSlogHandlerWithLogger(zerolog.New(&buf))
		slog.New(handler).Log(context.Background(), tt.level, "msg")
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("level %v: expected %s, got %s", tt.level, tt.want, buf.String())
		}
	}
}

func TestSlogHandler_WithGroupAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	var handler slog.Handler = NewSlogHandlerWithLogger(zerolog.New(&buf))
	handler = handler.WithAttrs([]slog.Attr{slog.String("supervisor", "root")})
	handler = handler.WithGroup("event")

	slog.New(handler).Warn("service failed", "name", "http-server")

	output := buf.String()
	if !strings.Contains(output, `"event.supervisor":"root"`) && !strings.Contains(output, `"supervisor":"root"`) {
		t.Errorf("expected supervisor attr, got: %s", output)
	}
	if !strings.Contains(output, `"event.name":"http-server"`) {
		t.Errorf("expected grouped attr, got: %s", output)
	}
}

func TestSlogHandler_WithEmptyGroup(t *testing.T) {
	handler := NewSlogHandler()
	if handler.WithGroup("") != handler {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}
