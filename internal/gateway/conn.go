// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package gateway

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/metrics"
)

// Transport is the subset of *websocket.Conn the gateway uses.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Subprotocol() string
	Close() error
}

var _ Transport = (*websocket.Conn)(nil)

// State is a connection's lifecycle state.
type State int32

const (
	StateOpening State = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// enqueueResult is the outcome of handing a frame to a connection's writer.
type enqueueResult int

const (
	enqueued enqueueResult = iota
	queueFull
	connClosed
)

// connSettings are the per-connection transport limits.
type connSettings struct {
	sendQueueSize  int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
}

// Conn is one live connection. The lifecycle controller owns it; the registry
// only holds references.
type Conn struct {
	id        string
	transport Transport
	codec     Codec
	settings  connSettings
	log       zerolog.Logger

	state atomic.Int32

	// send is never closed; done signals the writer instead, so concurrent
	// broadcasts can never panic on a closed channel.
	send       chan []byte
	done       chan struct{}
	writerDone chan struct{}

	closeOnce     sync.Once
	closeCode     int
	closeReason   string
	transportOnce sync.Once
}

func newConn(t Transport, codec Codec, settings connSettings) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:         id,
		transport:  t,
		codec:      codec,
		settings:   settings,
		log:        logging.With().Str("component", "gateway").Str("conn_id", id).Logger(),
		send:       make(chan []byte, settings.sendQueueSize),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// ID returns the process-unique connection id.
func (c *Conn) ID() string { return c.id }

// Codec returns the negotiated wire codec.
func (c *Conn) Codec() Codec { return c.codec }

// State returns the current lifecycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

// transition moves the connection from one state to another. StateClosed is
// terminal and never left.
func (c *Conn) transition(from, to State) bool {
	if from == StateClosed {
		return false
	}
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// markClosed moves the connection to StateClosed and returns the prior state.
func (c *Conn) markClosed() State {
	return State(c.state.Swap(int32(StateClosed)))
}

// Writable reports whether the connection accepts outbound frames.
func (c *Conn) Writable() bool {
	switch c.State() {
	case StateAuthenticated, StateActive:
	default:
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// enqueue hands data to the writer without blocking.
func (c *Conn) enqueue(data []byte) enqueueResult {
	select {
	case <-c.done:
		return connClosed
	default:
	}

	select {
	case c.send <- data:
		return enqueued
	default:
		return queueFull
	}
}

// shutdown asks the writer to send a close frame with code and stop. Only the
// first call's code is used.
func (c *Conn) shutdown(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

func (c *Conn) closeTransport() {
	c.transportOnce.Do(func() {
		if err := c.transport.Close(); err != nil {
			c.log.Debug().Err(err).Msg("transport close")
		}
	})
}

// reject closes a connection that never became active.
func (c *Conn) reject(code int, reason string) {
	c.markClosed()
	c.shutdown(code, reason)
	deadline := time.Now().Add(c.settings.writeWait)
	if err := c.transport.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil {
		c.log.Debug().Err(err).Msg("write close frame")
	}
	c.closeTransport()
	close(c.writerDone)
}

// readLoop delivers inbound frames to handle one at a time until the
// transport fails or closes.
func (c *Conn) readLoop(handle func(raw []byte)) {
	c.transport.SetReadLimit(c.settings.maxMessageSize)
	_ = c.transport.SetReadDeadline(time.Now().Add(c.settings.pongWait))
	c.transport.SetPongHandler(func(string) error {
		return c.transport.SetReadDeadline(time.Now().Add(c.settings.pongWait))
	})

	for {
		_, raw, err := c.transport.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				c.log.Debug().Err(err).Msg("unexpected close")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		if c.State() == StateClosed {
			return
		}
		handle(raw)
	}
}

// writePump is the only goroutine that writes data frames to the transport.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.settings.pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeTransport()
		close(c.writerDone)
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				c.log.Debug().Err(err).Msg("write failed")
				c.shutdown(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.settings.writeWait)
			if err := c.transport.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				metrics.WSErrors.WithLabelValues("ping").Inc()
				c.shutdown(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-c.done:
			c.flush()
			c.writeClose()
			return
		}
	}
}

// flush writes whatever is already queued so a final error reaches the client
// before the close frame.
func (c *Conn) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(data []byte) error {
	if err := c.transport.SetWriteDeadline(time.Now().Add(c.settings.writeWait)); err != nil {
		return err
	}
	if err := c.transport.WriteMessage(c.codec.MessageType(), data); err != nil {
		return err
	}
	metrics.WSMessagesSent.Inc()
	return nil
}

func (c *Conn) writeClose() {
	if c.closeCode == websocket.CloseAbnormalClosure {
		return
	}
	deadline := time.Now().Add(c.settings.writeWait)
	msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
	if err := c.transport.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		c.log.Debug().Err(err).Msg("write close frame")
	}
}
