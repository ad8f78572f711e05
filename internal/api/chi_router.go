// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vagishmaurya/disaster-management/internal/middleware"
)

// Routes assembles the full router. Three admission tiers cover /api:
// general for CRUD traffic, strict for resource-intensive enrichment reads,
// ai for endpoints that trigger external provider calls. Probes and metrics
// sit outside all tiers.
func (s *Server) Routes(m *ChiMiddleware) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(SecurityHeaders())
	r.Use(m.CORS())
	r.Use(middleware.PrometheusMetrics)

	// Liveness probes, admitted unconditionally.
	r.Get("/", s.HandleHealth)
	r.Get("/health", s.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// General tier: disaster and report CRUD.
		r.Group(func(r chi.Router) {
			r.Use(m.RateLimitGeneral())
			r.Use(middleware.Compression)

			r.Get("/disasters", s.HandleListDisasters)
			r.Post("/disasters", s.HandleCreateDisaster)
			r.Get("/disasters/{id}", s.HandleGetDisaster)
			r.Put("/disasters/{id}", s.HandleUpdateDisaster)
			r.Delete("/disasters/{id}", s.HandleDeleteDisaster)

			r.Get("/reports", s.HandleListReports)
			r.Post("/reports", s.HandleCreateReport)
		})

		// Strict tier: enrichment reads that fan out to providers.
		r.Group(func(r chi.Router) {
			r.Use(m.RateLimitStrict())
			r.Use(middleware.Compression)

			r.Get("/disasters/{id}/social-media", s.HandleSocialMedia)
			r.Get("/disasters/{id}/official-updates", s.HandleOfficialUpdates)
			r.Get("/disasters/{id}/resources", s.HandleNearbyResources)
		})

		// AI tier: writes that always hit external providers.
		r.Group(func(r chi.Router) {
			r.Use(m.RateLimitAI())

			r.Post("/disasters/{id}/verify-image", s.HandleVerifyImage)
			r.Post("/geocode", s.HandleGeocode)
			r.Post("/extract-location", s.HandleExtractLocation)
		})

		// WebSocket upgrade sits outside the tiers; admission happens at
		// the connection level, not per message.
		r.Get("/ws", s.HandleWebSocket)
	})

	return r
}
