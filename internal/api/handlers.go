// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Vagishmaurya/disaster-management/internal/config"
	"github.com/Vagishmaurya/disaster-management/internal/enrichment"
	"github.com/Vagishmaurya/disaster-management/internal/store"
	"github.com/Vagishmaurya/disaster-management/internal/websocket"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Server holds the handler dependencies.
type Server struct {
	cfg       *config.Config
	store     store.Store
	enrich    *enrichment.Service
	hub       *websocket.Hub
	startTime time.Time
}

// NewServer wires the HTTP handlers to their dependencies.
func NewServer(cfg *config.Config, st store.Store, enrich *enrichment.Service, hub *websocket.Hub) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		enrich:    enrich,
		hub:       hub,
		startTime: time.Now(),
	}
}

// sanitizeLogValue replaces control characters so request-derived strings
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getFloatParam extracts a float query parameter with a default value.
func getFloatParam(r *http.Request, key string, defaultValue float64) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// listWindow normalizes limit/offset query parameters.
func listWindow(r *http.Request) (limit, offset int) {
	limit = getIntParam(r, "limit", defaultListLimit)
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset = getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// paginationMeta builds the pagination block for a list response.
func paginationMeta(total, count, offset, limit int) *PaginationMeta {
	return &PaginationMeta{
		Total:   total,
		Count:   count,
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+count < total,
	}
}
