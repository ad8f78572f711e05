// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the platform:
// - HTTP endpoint latency and status codes
// - Enrichment pipeline throughput, fallbacks, and breaker state
// - Cache efficiency per enrichment kind
// - WebSocket connections and room fan-out
// - Rate limit rejections per tier

var (
	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	// Rate Limiting Metrics
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of requests rejected by rate limiting",
		},
		[]string{"tier"},
	)

	// Enrichment Pipeline Metrics
	EnrichmentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_requests_total",
			Help: "Total number of enrichment provider calls",
		},
		[]string{"kind", "outcome"}, // outcome: "success", "failure"
	)

	EnrichmentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_fallbacks_total",
			Help: "Total number of degraded responses served from contextual fallbacks",
		},
		[]string{"kind"},
	)

	EnrichmentBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_breaker_transitions_total",
			Help: "Circuit breaker state transitions per enrichment provider",
		},
		[]string{"provider", "state"},
	)

	// Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups per enrichment kind and result",
		},
		[]string{"kind", "result"}, // result: "hit", "miss"
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of live cache entries",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of expired cache entries purged",
		},
	)

	// WebSocket Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of connected WebSocket clients",
		},
	)

	WebSocketRoomMembers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_room_members",
			Help: "Current number of clients subscribed per room",
		},
		[]string{"room"},
	)

	WebSocketMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of messages fanned out to WebSocket clients",
		},
		[]string{"topic"},
	)

	WebSocketClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_clients_dropped_total",
			Help: "Total number of clients disconnected for not draining their send buffer",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Audit Metrics
	AuditEntriesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_appended_total",
			Help: "Total number of audit trail entries appended",
		},
		[]string{"action"},
	)
)

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
}

// RecordRateLimitRejection records a request rejected by the named tier.
func RecordRateLimitRejection(tier string) {
	RateLimitRejections.WithLabelValues(tier).Inc()
}

// RecordStoreOperation records the latency of one store operation.
func RecordStoreOperation(operation string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAuditAppend records one audit entry by action.
func RecordAuditAppend(action string) {
	AuditEntriesAppended.WithLabelValues(action).Inc()
}
