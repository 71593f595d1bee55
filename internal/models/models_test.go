// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestUser_Ref(t *testing.T) {
	t.Parallel()

	u := &User{ID: "A", Username: "alice", SessionID: "s1", IsOnline: true}
	ref := u.Ref()
	if ref.ID != "A" || ref.Username != "alice" {
		t.Errorf("Ref() = %+v", ref)
	}
}

func TestUserRef_NoSessionLeak(t *testing.T) {
	t.Parallel()

	u := &User{ID: "A", Username: "alice", SessionID: "secret-session"}
	data, err := json.Marshal(u.Ref())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret-session") {
		t.Errorf("public projection leaked the session id: %s", data)
	}
	if string(data) != `{"id":"A","username":"alice"}` {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestAPIResponse_OmitsEmptyError(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(APIResponse{Status: "success", Data: GatewayStats{Connections: 1}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("error field should be omitted: %s", data)
	}
}
