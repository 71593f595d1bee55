// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package store

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/parlor-chat/parlor/internal/config"
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/models"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
	os.Exit(m.Run())
}

func createTestStore(t *testing.T) *BadgerUserStore {
	t.Helper()

	s, err := Open(config.StoreConfig{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerUserStore_UpsertAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created, err := s.Upsert(ctx, "A", "alice")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("new user should receive a session id")
	}

	got, err := s.GetByID(ctx, "A")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice" || got.SessionID != created.SessionID {
		t.Errorf("GetByID() = %+v, want alice/%s", got, created.SessionID)
	}

	renamed, err := s.Upsert(ctx, "A", "alice2")
	if err != nil {
		t.Fatalf("Upsert() rename error = %v", err)
	}
	if renamed.SessionID != created.SessionID {
		t.Error("renaming must not rotate the session")
	}
	if renamed.Username != "alice2" {
		t.Errorf("Username = %q, want alice2", renamed.Username)
	}
}

func TestBadgerUserStore_GetByID_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetByID(context.Background(), "nobody")
	if !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestBadgerUserStore_RotateSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created, err := s.Upsert(ctx, "A", "alice")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	rotated, err := s.RotateSession(ctx, "A")
	if err != nil {
		t.Fatalf("RotateSession() error = %v", err)
	}
	if rotated.SessionID == created.SessionID {
		t.Error("RotateSession() returned the old session id")
	}

	got, err := s.GetByID(ctx, "A")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.SessionID != rotated.SessionID {
		t.Errorf("stored session = %q, want %q", got.SessionID, rotated.SessionID)
	}

	if _, err := s.RotateSession(ctx, "nobody"); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("RotateSession(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestBadgerUserStore_SetOnline(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Upsert(ctx, "A", "alice"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := s.SetOnline(ctx, "A", true); err != nil {
		t.Fatalf("SetOnline(true) error = %v", err)
	}
	got, _ := s.GetByID(ctx, "A")
	if !got.IsOnline {
		t.Error("IsOnline should be true")
	}

	if err := s.SetOnline(ctx, "A", false); err != nil {
		t.Fatalf("SetOnline(false) error = %v", err)
	}
	got, _ = s.GetByID(ctx, "A")
	if got.IsOnline {
		t.Error("IsOnline should be false")
	}

	if err := s.SetOnline(ctx, "ghost", true); err != nil {
		t.Errorf("SetOnline(unknown) should be ignored, got %v", err)
	}
}

func TestBadgerUserStore_ResetOnline(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		if _, err := s.Upsert(ctx, id, "user-"+id); err != nil {
			t.Fatalf("Upsert(%s) error = %v", id, err)
		}
	}
	_ = s.SetOnline(ctx, "A", true)
	_ = s.SetOnline(ctx, "C", true)

	n, err := s.ResetOnline(ctx)
	if err != nil {
		t.Fatalf("ResetOnline() error = %v", err)
	}
	if n != 2 {
		t.Errorf("ResetOnline() reset %d users, want 2", n)
	}
	for _, id := range []string{"A", "B", "C"} {
		got, _ := s.GetByID(ctx, id)
		if got.IsOnline {
			t.Errorf("user %s still online", id)
		}
	}
}

func TestBadgerUserStore_ConcurrentRotate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Upsert(ctx, "A", "alice"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sessions = make(map[string]struct{})
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				u, err := s.RotateSession(ctx, "A")
				if err == nil {
					mu.Lock()
					sessions[u.SessionID] = struct{}{}
					mu.Unlock()
					return
				}
				// Badger reports write conflicts between concurrent transactions.
				if !errors.Is(err, badger.ErrConflict) {
					t.Errorf("RotateSession() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if len(sessions) != 10 {
		t.Errorf("got %d distinct sessions, want 10", len(sessions))
	}
}

func TestBadgerUserStore_Ping(t *testing.T) {
	s, err := Open(config.StoreConfig{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on open store = %v", err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() on closed store = %v, want ErrClosed", err)
	}
	if _, err := s.GetByID(context.Background(), "A"); !errors.Is(err, ErrClosed) {
		t.Errorf("GetByID() on closed store = %v, want ErrClosed", err)
	}
}
