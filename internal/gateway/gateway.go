// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parlor-chat/parlor/internal/config"
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/metrics"
	"github.com/parlor-chat/parlor/internal/models"
)

// ErrShuttingDown is returned by Serve once the gateway has begun shutting down.
var ErrShuttingDown = errors.New("gateway shutting down")

// OnlineRecorder persists whether a user has any live connection.
type OnlineRecorder interface {
	SetOnline(ctx context.Context, userID string, online bool) error
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithOnlineRecorder records first-connect and last-disconnect of each user.
func WithOnlineRecorder(r OnlineRecorder) Option {
	return func(g *Gateway) { g.online = r }
}

// WithClock overrides the clock used to stamp published messages.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// Gateway accepts authenticated connections and routes envelopes between them.
type Gateway struct {
	cfg       config.GatewayConfig
	validator SessionValidator
	registry  *Registry
	online    OnlineRecorder
	now       func() time.Time
	initial   []string

	onlineMu sync.Mutex

	mu      sync.Mutex
	closing bool
	active  sync.WaitGroup
}

// New returns a gateway that authenticates connections against validator.
func New(cfg config.GatewayConfig, validator SessionValidator, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:       cfg,
		validator: validator,
		registry:  NewRegistry(),
		now:       time.Now,
		initial:   cfg.InitialChannels(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry exposes the connection registry.
func (g *Gateway) Registry() *Registry { return g.registry }

// Stats summarizes the registry for the admin API.
func (g *Gateway) Stats() models.GatewayStats {
	s := g.registry.Stats()
	return models.GatewayStats{
		Connections: s.Connections,
		Users:       s.Users,
		Channels:    s.Channels,
		Subscribers: g.registry.SubscriberCounts(),
	}
}

func (g *Gateway) settings() connSettings {
	return connSettings{
		sendQueueSize:  g.cfg.SendQueueSize,
		maxMessageSize: g.cfg.MaxMessageSize,
		writeWait:      g.cfg.WriteWait,
		pongWait:       g.cfg.PongWait,
		pingPeriod:     g.cfg.PingPeriod,
	}
}

// Serve runs one connection from open to close and returns once it is fully
// torn down. A rejected connection returns a *CloseError.
func (g *Gateway) Serve(ctx context.Context, t Transport, params ConnectParams) error {
	conn := newConn(t, CodecFor(t.Subprotocol()), g.settings())

	g.mu.Lock()
	if g.closing {
		g.mu.Unlock()
		conn.reject(websocket.CloseGoingAway, "server shutting down")
		return ErrShuttingDown
	}
	g.active.Add(1)
	g.mu.Unlock()
	defer g.active.Done()

	ctx = logging.ContextWithConnection(ctx, conn.ID())
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	log := logging.Ctx(ctx).With().
		Str("component", "gateway").
		Str("user_id", params.UserID).
		Str("remote_addr", params.RemoteAddr).
		Logger()

	authCtx, cancel := context.WithTimeout(ctx, g.cfg.AuthTimeout)
	identity, err := Authenticate(authCtx, g.validator, params.UserID, params.SessionID)
	cancel()
	if err != nil {
		cerr := closeForAuthError(err)
		if cerr.Code == CloseAuthRequired {
			metrics.RecordAuthFailure("auth_required")
		} else {
			metrics.RecordAuthFailure("invalid_session")
		}
		log.Info().Err(err).Int("close_code", cerr.Code).Msg("connection rejected")
		conn.reject(cerr.Code, cerr.Reason)
		return cerr
	}

	if !conn.transition(StateOpening, StateAuthenticated) {
		conn.reject(websocket.CloseInternalServerErr, "invalid state")
		return errors.New("connection left opening state before authentication")
	}
	ctx = logging.ContextWithUser(ctx, identity.UserID)
	conn.log = logging.Ctx(ctx).With().
		Str("component", "gateway").
		Str("remote_addr", params.RemoteAddr).
		Str("username", identity.Username).
		Logger()

	go conn.writePump()

	if err := g.activate(conn, identity); err != nil {
		conn.log.Error().Err(err).Msg("activation failed")
		g.teardown(conn)
		return err
	}

	// Shutdown may have snapshotted the registry before this connection
	// registered.
	if g.isClosing() {
		conn.shutdown(websocket.CloseGoingAway, "server shutting down")
	}
	stop := context.AfterFunc(ctx, func() {
		conn.shutdown(websocket.CloseGoingAway, "server shutting down")
	})
	defer stop()

	conn.log.Info().Msg("connection active")
	conn.readLoop(func(raw []byte) { g.handleFrame(conn, raw) })

	g.teardown(conn)
	return nil
}

// activate registers conn, joins the default channels and announces it.
func (g *Gateway) activate(conn *Conn, identity Identity) error {
	first, err := g.registry.register(conn, identity)
	if err != nil {
		return err
	}
	for _, channel := range g.initial {
		if _, err := g.registry.Subscribe(conn, channel); err != nil {
			return err
		}
	}
	g.publishRegistrySize()

	if first {
		g.syncOnline(identity.UserID)
	}

	if !conn.transition(StateAuthenticated, StateActive) {
		return errors.New("connection closed during activation")
	}
	g.announceOnline(identity)
	return nil
}

// teardown is the single close path: evict, announce offline, stop the writer.
func (g *Gateway) teardown(conn *Conn) {
	conn.markClosed()

	ev, ok := g.registry.evict(conn)
	if ok {
		g.publishRegistrySize()
		g.announceOffline(ev)
		if ev.lastForUser {
			g.syncOnline(ev.identity.UserID)
		}
		conn.log.Info().Int("channels", len(ev.channels)).Msg("connection closed")
	}

	conn.shutdown(websocket.CloseNormalClosure, "")
	<-conn.writerDone
}

// syncOnline writes the user's current online state to the store. Calls are
// serialized and re-read the registry, so the last write always reflects the
// latest state even when connects and disconnects race.
func (g *Gateway) syncOnline(userID string) {
	if g.online == nil {
		return
	}
	g.onlineMu.Lock()
	defer g.onlineMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.AuthTimeout)
	defer cancel()

	online := g.registry.UserOnline(userID)
	if err := g.online.SetOnline(ctx, userID, online); err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Bool("online", online).Msg("failed to record online state")
	}
}

func (g *Gateway) publishRegistrySize() {
	s := g.registry.Stats()
	metrics.SetRegistrySize(s.Connections, s.Channels)
}

// handleFrame processes one inbound frame on the connection's read goroutine.
func (g *Gateway) handleFrame(conn *Conn, raw []byte) {
	identity, ok := g.registry.Lookup(conn)
	if !ok {
		g.orphaned(conn)
		return
	}

	env, err := DecodeEnvelope(conn.Codec(), raw)
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) {
			g.sendError(conn, perr)
		}
		return
	}
	metrics.RecordEnvelope(string(env.Method))

	channel := env.Payload.Channel
	switch env.Method {
	case MethodSubscribe:
		added, err := g.registry.Subscribe(conn, channel)
		if errors.Is(err, ErrNotRegistered) {
			g.orphaned(conn)
			return
		}
		if added {
			g.publishRegistrySize()
			conn.log.Debug().Str("channel", channel).Msg("subscribed")
		}

	case MethodUnsubscribe:
		if g.registry.Unsubscribe(conn, channel) {
			g.publishRegistrySize()
			conn.log.Debug().Str("channel", channel).Msg("unsubscribed")
		}

	case MethodPublish:
		out := publishEnvelope(env.Payload, identity, g.now())
		n := g.Broadcast(channel, out, conn)
		conn.log.Debug().Str("channel", channel).Int("delivered", n).Msg("published")
	}
}

// orphaned handles a frame from a connection the registry no longer knows.
// That is never a client mistake, so the connection is closed.
func (g *Gateway) orphaned(conn *Conn) {
	conn.log.Error().Msg("frame from unregistered connection")
	g.sendError(conn, protocolError(CodeNotRegistered, "connection has no identity"))
	metrics.RecordForcedClose("orphaned")
	conn.markClosed()
	conn.shutdown(websocket.ClosePolicyViolation, "connection not registered")
}

// sendError reports a protocol error to conn only.
func (g *Gateway) sendError(conn *Conn, perr *ProtocolError) {
	metrics.RecordProtocolError(perr.Code)
	data, err := conn.Codec().Marshal(perr.Envelope())
	if err != nil {
		conn.log.Error().Err(err).Msg("encode protocol error")
		return
	}
	if conn.enqueue(data) != enqueued {
		conn.log.Debug().Str("code", perr.Code).Msg("protocol error not delivered")
	}
}

// Accepting reports whether new connections are admitted.
func (g *Gateway) Accepting() bool { return !g.isClosing() }

func (g *Gateway) isClosing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closing
}

// RunWithContext blocks until ctx is cancelled, then closes every connection
// with CloseGoingAway and waits for them to finish their close path.
func (g *Gateway) RunWithContext(ctx context.Context) error {
	<-ctx.Done()
	g.Shutdown(g.cfg.WriteWait * 2)
	return ctx.Err()
}

// Shutdown stops accepting connections, closes the live ones and waits up to
// timeout for them to be torn down.
func (g *Gateway) Shutdown(timeout time.Duration) {
	g.mu.Lock()
	g.closing = true
	g.mu.Unlock()

	conns := g.registry.Connections()
	for _, conn := range conns {
		metrics.RecordForcedClose("shutdown")
		conn.shutdown(websocket.CloseGoingAway, "server shutting down")
	}
	logging.Info().Int("connections", len(conns)).Msg("gateway shutting down")

	done := make(chan struct{})
	go func() {
		g.active.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("gateway shutdown timed out")
	}
}
