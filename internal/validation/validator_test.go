// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package validation

import (
	"strings"
	"testing"
)

type testRequest struct {
	Method  string `json:"method" validate:"required,oneof=subscribe publish"`
	Channel string `json:"channel" validate:"required,channel"`
	Limit   int    `json:"limit" validate:"gte=0,lte=10"`
}

func TestValidateStruct_Valid(t *testing.T) {
	req := testRequest{Method: "publish", Channel: "team:T1", Limit: 3}
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		req       testRequest
		wantField string
		wantTag   string
	}{
		{"missing method", testRequest{Channel: "public"}, "method", "required"},
		{"bad method", testRequest{Method: "delete", Channel: "public"}, "method", "oneof"},
		{"missing channel", testRequest{Method: "publish"}, "channel", "required"},
		{"bad channel", testRequest{Method: "publish", Channel: "has space"}, "channel", "channel"},
		{"limit too large", testRequest{Method: "publish", Channel: "public", Limit: 11}, "limit", "lte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !err.HasField(tt.wantField) {
				t.Fatalf("expected failure on %q, got %v", tt.wantField, err)
			}
			if first := err.First(); first.Tag() != tt.wantTag {
				t.Errorf("tag = %q, want %q", first.Tag(), tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	err := ValidateStruct(&testRequest{Method: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "method must be one of: subscribe publish") {
		t.Errorf("unexpected message: %s", msg)
	}
	if !strings.Contains(msg, "channel is required") {
		t.Errorf("unexpected message: %s", msg)
	}
	if len(err.Errors()) != 2 {
		t.Errorf("expected 2 errors, got %d", len(err.Errors()))
	}
}

func TestValidChannel(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"public", true},
		{"presence", true},
		{"team:T1", true},
		{"organization:42", true},
		{"direct:a:b", true},
		{"user-room_1.x", true},
		{"", false},
		{"team:", false},
		{":team", false},
		{"has space", false},
		{"emoji☃", false},
		{strings.Repeat("a", MaxChannelLength+1), false},
	}

	for _, tt := range tests {
		if got := ValidChannel(tt.name); got != tt.valid {
			t.Errorf("ValidChannel(%q) = %v, want %v", tt.name, got, tt.valid)
		}
	}
}

func TestValidator_Singleton(t *testing.T) {
	if Validator() != Validator() {
		t.Error("Validator should return the same instance")
	}
}
