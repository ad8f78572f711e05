// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/disasters", "200"))
	RecordHTTPRequest("GET", "/api/disasters", 200, 25*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/disasters", "200"))
	if after != before+1 {
		t.Errorf("counter: before=%f after=%f", before, after)
	}
}

func TestRecordRateLimitRejection(t *testing.T) {
	before := testutil.ToFloat64(RateLimitRejections.WithLabelValues("strict"))
	RecordRateLimitRejection("strict")
	RecordRateLimitRejection("strict")
	after := testutil.ToFloat64(RateLimitRejections.WithLabelValues("strict"))
	if after != before+2 {
		t.Errorf("counter: before=%f after=%f", before, after)
	}
}

func TestCacheLookupLabels(t *testing.T) {
	before := testutil.ToFloat64(CacheLookups.WithLabelValues("geocode", "hit"))
	CacheLookups.WithLabelValues("geocode", "hit").Inc()
	after := testutil.ToFloat64(CacheLookups.WithLabelValues("geocode", "hit"))
	if after != before+1 {
		t.Errorf("counter: before=%f after=%f", before, after)
	}
}

func TestRecordAuditAppend(t *testing.T) {
	before := testutil.ToFloat64(AuditEntriesAppended.WithLabelValues("update"))
	RecordAuditAppend("update")
	after := testutil.ToFloat64(AuditEntriesAppended.WithLabelValues("update"))
	if after != before+1 {
		t.Errorf("counter: before=%f after=%f", before, after)
	}
}

func TestWebSocketGauges(t *testing.T) {
	WebSocketConnections.Set(0)
	WebSocketConnections.Inc()
	WebSocketConnections.Inc()
	WebSocketConnections.Dec()
	if got := testutil.ToFloat64(WebSocketConnections); got != 1 {
		t.Errorf("connections gauge = %f, want 1", got)
	}
}
