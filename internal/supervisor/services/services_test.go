// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockHTTPServer implements HTTPServer for testing.
type mockHTTPServer struct {
	listenErr     error
	shutdownErr   error
	listenCalls   atomic.Int32
	shutdownCalls atomic.Int32
	stop          chan struct{}
	once          sync.Once
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{stop: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.listenCalls.Add(1)
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stop
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(_ context.Context) error {
	m.shutdownCalls.Add(1)
	m.once.Do(func() { close(m.stop) })
	return m.shutdownErr
}

func serveAsync(fn func(context.Context) error) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- fn(ctx) }()
	return cancel, errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("service did not return")
		return nil
	}
}

func TestHTTPServerService(t *testing.T) {
	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		mock := newMockHTTPServer()
		svc := NewHTTPServerService(mock, time.Second)

		cancel, errCh := serveAsync(svc.Serve)
		time.Sleep(20 * time.Millisecond)
		cancel()

		if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
		if mock.shutdownCalls.Load() != 1 {
			t.Errorf("shutdown calls = %d, want 1", mock.shutdownCalls.Load())
		}
	})

	t.Run("listener failure is returned", func(t *testing.T) {
		mock := newMockHTTPServer()
		mock.listenErr = errors.New("address already in use")
		svc := NewHTTPServerService(mock, time.Second)

		cancel, errCh := serveAsync(svc.Serve)
		defer cancel()

		err := waitErr(t, errCh)
		if err == nil || !errors.Is(err, mock.listenErr) {
			t.Errorf("Serve() = %v, want wrapped listen error", err)
		}
	})

	t.Run("shutdown error is returned", func(t *testing.T) {
		mock := newMockHTTPServer()
		mock.shutdownErr = context.DeadlineExceeded
		svc := NewHTTPServerService(mock, time.Second)

		cancel, errCh := serveAsync(svc.Serve)
		time.Sleep(20 * time.Millisecond)
		cancel()

		if err := waitErr(t, errCh); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v, want DeadlineExceeded", err)
		}
	})

	if got := NewHTTPServerService(newMockHTTPServer(), time.Second).String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}

type mockRunner struct {
	stopped atomic.Bool
}

func (m *mockRunner) RunWithContext(ctx context.Context) error {
	<-ctx.Done()
	m.stopped.Store(true)
	return ctx.Err()
}

func TestGatewayService(t *testing.T) {
	runner := &mockRunner{}
	svc := NewGatewayService(runner)
	if svc.String() != "gateway" {
		t.Errorf("String() = %q", svc.String())
	}

	cancel, errCh := serveAsync(svc.Serve)
	cancel()
	if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if !runner.stopped.Load() {
		t.Error("gateway was not stopped")
	}
}

type mockComponents struct {
	startErr      error
	startCalls    atomic.Int32
	shutdownCalls atomic.Int32
	done          chan struct{}
}

func newMockComponents() *mockComponents {
	return &mockComponents{done: make(chan struct{})}
}

func (m *mockComponents) Start(_ context.Context) error {
	m.startCalls.Add(1)
	return m.startErr
}

func (m *mockComponents) Shutdown(ctx context.Context) {
	if _, ok := ctx.Deadline(); ok {
		m.shutdownCalls.Add(1)
	}
}

func (m *mockComponents) Done() <-chan struct{} { return m.done }

func TestNATSComponentsService(t *testing.T) {
	t.Run("stops on cancel", func(t *testing.T) {
		comps := newMockComponents()
		svc := NewNATSComponentsService(comps, time.Second)

		cancel, errCh := serveAsync(svc.Serve)
		time.Sleep(20 * time.Millisecond)
		cancel()

		if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
		if comps.startCalls.Load() != 1 || comps.shutdownCalls.Load() != 1 {
			t.Errorf("start/shutdown = %d/%d, want 1/1", comps.startCalls.Load(), comps.shutdownCalls.Load())
		}
	})

	t.Run("start failure", func(t *testing.T) {
		comps := newMockComponents()
		comps.startErr = errors.New("no servers available")
		svc := NewNATSComponentsService(comps, 0)

		cancel, errCh := serveAsync(svc.Serve)
		defer cancel()

		if err := waitErr(t, errCh); !errors.Is(err, comps.startErr) {
			t.Errorf("Serve() = %v", err)
		}
		if comps.shutdownCalls.Load() != 0 {
			t.Error("shutdown should not run after a failed start")
		}
	})

	t.Run("unexpected stop is reported", func(t *testing.T) {
		comps := newMockComponents()
		svc := NewNATSComponentsService(comps, time.Second)

		cancel, errCh := serveAsync(svc.Serve)
		defer cancel()
		close(comps.done)

		if err := waitErr(t, errCh); !errors.Is(err, ErrComponentsStopped) {
			t.Errorf("Serve() = %v, want ErrComponentsStopped", err)
		}
		if comps.shutdownCalls.Load() != 1 {
			t.Error("components were not shut down")
		}
	})

	if svc := NewNATSComponentsService(newMockComponents(), 0); svc.shutdownTimeout != 10*time.Second || svc.String() != "nats-components" {
		t.Errorf("defaults = %v %q", svc.shutdownTimeout, svc.String())
	}
}
