// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

// Package enrichment implements the cache-aside enrichment pipeline. Every
// lookup follows the same protocol: consult the TTL cache, call the external
// provider on a miss, write the fresh value back, and fall through to a
// deterministic contextual fallback when the provider is unavailable.
package enrichment

// Status distinguishes provider-fresh (or cached) data from fallback data.
type Status string

const (
	// StatusOK means the payload came from the cache or a live provider call.
	StatusOK Status = "ok"
	// StatusDegraded means the provider was unavailable and the payload is a
	// contextual fallback. Degraded responses are never cached.
	StatusDegraded Status = "degraded"
)

// Result wraps an enrichment payload with its provenance. Handlers surface
// the status so clients can distinguish live data from fallbacks; a degraded
// result is still an HTTP 200.
type Result[T any] struct {
	Data   T      `json:"data"`
	Status Status `json:"status"`
	Source string `json:"source,omitempty"`
}

func ok[T any](data T, source string) Result[T] {
	return Result[T]{Data: data, Status: StatusOK, Source: source}
}

func degraded[T any](data T, source string) Result[T] {
	return Result[T]{Data: data, Status: StatusDegraded, Source: source}
}
