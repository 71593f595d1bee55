// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package gateway

import (
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/metrics"
)

// Broadcast queues out to every current subscriber of channel except exclude
// and returns how many subscribers it reached. Subscribers that are closed or
// whose send queue is full are skipped; they are not evicted here, since
// cleanup belongs to each connection's own close path.
//
// out is encoded at most once per codec.
func (g *Gateway) Broadcast(channel string, out *Envelope, exclude *Conn) int {
	subscribers := g.registry.Subscribers(channel)
	if len(subscribers) == 0 {
		metrics.RecordBroadcast(0)
		return 0
	}

	frames := make(map[string][]byte, 2)
	delivered := 0

	for _, conn := range subscribers {
		if conn == exclude {
			continue
		}
		if !conn.Writable() {
			metrics.RecordDropped("closed")
			continue
		}

		codec := conn.Codec()
		data, ok := frames[codec.Name()]
		if !ok {
			var err error
			data, err = codec.Marshal(out)
			if err != nil {
				logging.Error().Err(err).Str("channel", channel).Str("codec", codec.Name()).Msg("encode broadcast")
				metrics.RecordDropped("encode")
				continue
			}
			frames[codec.Name()] = data
		}

		switch conn.enqueue(data) {
		case enqueued:
			delivered++
		case queueFull:
			metrics.RecordDropped("queue_full")
			conn.log.Warn().Str("channel", channel).Msg("send queue full, frame dropped")
		case connClosed:
			metrics.RecordDropped("closed")
		}
	}

	metrics.RecordBroadcast(delivered)
	return delivered
}
