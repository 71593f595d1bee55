// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package gateway

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDecodeEnvelope_JSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode string
	}{
		{"not json", `hello`, CodeMalformedEnvelope},
		{"array", `[1,2]`, CodeMalformedEnvelope},
		{"null", `null`, CodeMalformedEnvelope},
		{"missing method", `{"payload":{"channel":"public"}}`, CodeMalformedEnvelope},
		{"method wrong type", `{"method":7}`, CodeMalformedEnvelope},
		{"unknown method", `{"method":"delete","payload":{"channel":"public"}}`, CodeUnknownMethod},
		{"error is outbound only", `{"method":"error","payload":{"channel":"public"}}`, CodeUnknownMethod},
		{"subscribe no payload", `{"method":"subscribe"}`, CodeMissingChannel},
		{"subscribe empty channel", `{"method":"subscribe","payload":{"channel":""}}`, CodeMissingChannel},
		{"subscribe bad channel", `{"method":"subscribe","payload":{"channel":"a b"}}`, CodeInvalidChannel},
		{"publish no channel", `{"method":"publish","payload":{"message":"hi"}}`, CodeMissingChannel},
		{"publish no message", `{"method":"publish","payload":{"channel":"public"}}`, CodeMissingMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope(JSONCodec, []byte(tt.raw))
			var perr *ProtocolError
			if !errors.As(err, &perr) {
				t.Fatalf("DecodeEnvelope() error = %v, want *ProtocolError", err)
			}
			if perr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (%s)", perr.Code, tt.wantCode, perr.Message)
			}
		})
	}
}

func TestDecodeEnvelope_Valid(t *testing.T) {
	tests := []struct {
		raw     string
		method  Method
		channel string
	}{
		{`{"method":"subscribe","payload":{"channel":"team:T1"}}`, MethodSubscribe, "team:T1"},
		{`{"method":"unsubscribe","payload":{"channel":"team:T1"}}`, MethodUnsubscribe, "team:T1"},
		{`{"method":"publish","payload":{"channel":"public","message":"hi","team":{"id":"T1","name":"core"}}}`, MethodPublish, "public"},
	}

	for _, tt := range tests {
		env, err := DecodeEnvelope(JSONCodec, []byte(tt.raw))
		if err != nil {
			t.Fatalf("DecodeEnvelope(%s) error = %v", tt.raw, err)
		}
		if env.Method != tt.method || env.Payload.Channel != tt.channel {
			t.Errorf("decoded %+v / %+v", env, env.Payload)
		}
	}
}

func TestDecodeEnvelope_Msgpack(t *testing.T) {
	raw, err := msgpack.Marshal(map[string]interface{}{
		"method":  "publish",
		"payload": map[string]interface{}{"channel": "public", "message": "hi"},
	})
	if err != nil {
		t.Fatalf("msgpack.Marshal() error = %v", err)
	}

	env, err := DecodeEnvelope(MsgpackCodec, raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope() error = %v", err)
	}
	if env.Method != MethodPublish || env.Payload.Message != "hi" {
		t.Errorf("decoded %+v / %+v", env, env.Payload)
	}

	_, err = DecodeEnvelope(MsgpackCodec, []byte{0xc1})
	var perr *ProtocolError
	if !errors.As(err, &perr) || perr.Code != CodeMalformedEnvelope {
		t.Errorf("garbage msgpack error = %v, want malformed_envelope", err)
	}
}

func TestPublishEnvelope_StampsServerFields(t *testing.T) {
	raw := `{"method":"publish","payload":{"channel":"public","message":"hi",
		"user":{"id":"mallory","username":"root"},"isOnline":true,"createdAt":"1999-01-01T00:00:00Z"}}`
	env, err := DecodeEnvelope(JSONCodec, []byte(raw))
	if err != nil {
		t.Fatalf("DecodeEnvelope() error = %v", err)
	}

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.FixedZone("X", 3600))
	out := publishEnvelope(env.Payload, identityFor("A"), now)

	if out.Payload.User.ID != "A" || out.Payload.User.Username != "user-A" {
		t.Errorf("user = %+v, want server identity", out.Payload.User)
	}
	if out.Payload.IsOnline != nil {
		t.Error("client isOnline must be stripped")
	}
	if !out.Payload.CreatedAt.Equal(now) || out.Payload.CreatedAt.Location() != time.UTC {
		t.Errorf("createdAt = %v, want %v in UTC", out.Payload.CreatedAt, now)
	}

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "mallory") || strings.Contains(string(data), "sessionId") {
		t.Errorf("outbound envelope leaks client or session data: %s", data)
	}
}

func TestPresenceEnvelope(t *testing.T) {
	env := presenceEnvelope("presence", identityFor("A"), false)
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"method":"publish","payload":{"channel":"presence","user":{"id":"A","username":"user-A"},"isOnline":false}}`
	if string(data) != want {
		t.Errorf("presence envelope = %s\nwant %s", data, want)
	}
}

func TestProtocolError_Envelope(t *testing.T) {
	data, err := json.Marshal(protocolError(CodeMissingChannel, "subscribe requires a channel").Envelope())
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"method":"error","payload":{"message":"subscribe requires a channel","code":"missing_channel"}}`
	if string(data) != want {
		t.Errorf("error envelope = %s\nwant %s", data, want)
	}
}

func TestCodecFor(t *testing.T) {
	if CodecFor(SubprotocolMsgpack) != MsgpackCodec {
		t.Error("msgpack subprotocol should select MsgpackCodec")
	}
	if CodecFor("") != JSONCodec || CodecFor(SubprotocolJSON) != JSONCodec {
		t.Error("default codec should be JSON")
	}
}
