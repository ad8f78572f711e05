// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the liveness payload for GET / and GET /health.
type HealthStatus struct {
	Status           string  `json:"status"`
	Version          string  `json:"version"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	ConnectedClients int     `json:"connected_clients"`
}

// HandleHealth handles GET / and GET /health. These probes are exempt from
// rate limiting so orchestrators can always reach them.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(HealthStatus{
		Status:           "ok",
		Version:          Version,
		UptimeSeconds:    time.Since(s.startTime).Seconds(),
		ConnectedClients: s.hub.GetClientCount(),
	})
}
