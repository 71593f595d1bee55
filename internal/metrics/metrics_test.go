// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/health/live", "200"))
	RecordAPIRequest("GET", "/api/v1/health/live", "200", 3*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/health/live", "200"))

	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestSetRegistrySize(t *testing.T) {
	SetRegistrySize(7, 3)

	if got := testutil.ToFloat64(GatewayConnections); got != 7 {
		t.Errorf("gateway_connections = %v, want 7", got)
	}
	if got := testutil.ToFloat64(GatewayChannels); got != 3 {
		t.Errorf("gateway_channels = %v, want 3", got)
	}
}

func TestGatewayCounters(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{
			name:   "auth failure",
			record: func() { RecordAuthFailure("invalid_session") },
			read:   func() float64 { return testutil.ToFloat64(GatewayAuthFailures.WithLabelValues("invalid_session")) },
		},
		{
			name:   "envelope",
			record: func() { RecordEnvelope("publish") },
			read:   func() float64 { return testutil.ToFloat64(GatewayEnvelopesReceived.WithLabelValues("publish")) },
		},
		{
			name:   "protocol error",
			record: func() { RecordProtocolError("missing_channel") },
			read:   func() float64 { return testutil.ToFloat64(GatewayProtocolErrors.WithLabelValues("missing_channel")) },
		},
		{
			name:   "dropped",
			record: func() { RecordDropped("queue_full") },
			read:   func() float64 { return testutil.ToFloat64(GatewayMessagesDropped.WithLabelValues("queue_full")) },
		},
		{
			name:   "presence online",
			record: func() { RecordPresence(true) },
			read:   func() float64 { return testutil.ToFloat64(GatewayPresenceEvents.WithLabelValues("online")) },
		},
		{
			name:   "presence offline",
			record: func() { RecordPresence(false) },
			read:   func() float64 { return testutil.ToFloat64(GatewayPresenceEvents.WithLabelValues("offline")) },
		},
		{
			name:   "forced close",
			record: func() { RecordForcedClose("session_invalidated") },
			read:   func() float64 { return testutil.ToFloat64(GatewayForcedCloses.WithLabelValues("session_invalidated")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.read()
			tt.record()
			if delta := tt.read() - before; delta != 1 {
				t.Errorf("delta = %v, want 1", delta)
			}
		})
	}
}

func TestRecordBroadcast(t *testing.T) {
	before := testutil.ToFloat64(GatewayMessagesDelivered)
	RecordBroadcast(4)
	RecordBroadcast(0)
	if delta := testutil.ToFloat64(GatewayMessagesDelivered) - before; delta != 4 {
		t.Errorf("delivered delta = %v, want 4", delta)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	errBefore := testutil.ToFloat64(StoreErrors.WithLabelValues("get"))

	RecordStoreOperation("get", time.Millisecond, nil)
	if got := testutil.ToFloat64(StoreErrors.WithLabelValues("get")); got != errBefore {
		t.Errorf("success should not count as error")
	}

	RecordStoreOperation("get", time.Millisecond, errors.New("disk full"))
	if got := testutil.ToFloat64(StoreErrors.WithLabelValues("get")); got != errBefore+1 {
		t.Errorf("store_errors_total = %v, want %v", got, errBefore+1)
	}
}

func TestNATSCounters(t *testing.T) {
	pub := testutil.ToFloat64(NATSMessagesPublished)
	con := testutil.ToFloat64(NATSMessagesConsumed)
	bad := testutil.ToFloat64(NATSParseFailed)

	RecordNATSPublish()
	RecordNATSConsume()
	RecordNATSParseFailed()

	if testutil.ToFloat64(NATSMessagesPublished) != pub+1 ||
		testutil.ToFloat64(NATSMessagesConsumed) != con+1 ||
		testutil.ToFloat64(NATSParseFailed) != bad+1 {
		t.Error("NATS counters did not advance by one")
	}
}

func TestConcurrentRecording(t *testing.T) {
	before := testutil.ToFloat64(GatewayEnvelopesReceived.WithLabelValues("subscribe"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordEnvelope("subscribe")
		}()
	}
	wg.Wait()

	if delta := testutil.ToFloat64(GatewayEnvelopesReceived.WithLabelValues("subscribe")) - before; delta != 50 {
		t.Errorf("delta = %v, want 50", delta)
	}
}
