// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Vagishmaurya/disaster-management/internal/enrichment"
	"github.com/Vagishmaurya/disaster-management/internal/logging"
	"github.com/Vagishmaurya/disaster-management/internal/models"
	"github.com/Vagishmaurya/disaster-management/internal/store"
	"github.com/Vagishmaurya/disaster-management/internal/websocket"
)

// enrichmentEnvelope wraps an enrichment payload with its degradation
// status so clients can distinguish live data from fallback.
type enrichmentEnvelope struct {
	DisasterID string            `json:"disaster_id,omitempty"`
	Status     enrichment.Status `json:"status"`
	Source     string            `json:"source"`
	Payload    interface{}       `json:"payload"`
}

// HandleSocialMedia handles GET /api/disasters/{id}/social-media.
func (s *Server) HandleSocialMedia(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	d, ok := s.loadDisaster(rw, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	res := s.enrich.SocialMedia(r.Context(), d)
	envelope := enrichmentEnvelope{
		DisasterID: d.ID,
		Status:     res.Status,
		Source:     res.Source,
		Payload:    res.Data,
	}

	s.hub.Publish(websocket.RoomForDisaster(d.ID), websocket.MessageTypeSocialMedia, envelope)
	rw.Success(envelope)
}

// HandleOfficialUpdates handles GET /api/disasters/{id}/official-updates.
func (s *Server) HandleOfficialUpdates(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	d, ok := s.loadDisaster(rw, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	res := s.enrich.OfficialUpdates(r.Context(), d)
	rw.Success(enrichmentEnvelope{
		DisasterID: d.ID,
		Status:     res.Status,
		Source:     res.Source,
		Payload:    res.Data,
	})
}

// HandleNearbyResources handles GET /api/disasters/{id}/resources. An
// explicit lat/lng pair overrides the disaster's own coordinates.
func (s *Server) HandleNearbyResources(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	d, ok := s.loadDisaster(rw, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if latStr, lngStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lng"); latStr != "" && lngStr != "" {
		center := models.Coordinates{
			Lat: getFloatParam(r, "lat", 0),
			Lng: getFloatParam(r, "lng", 0),
		}
		if err := validateCoordinates(center); err != nil {
			rw.ValidationError(err.Error(), nil)
			return
		}
		override := *d
		override.Location = &center
		d = &override
	}

	radius := getFloatParam(r, "radius", s.cfg.Enrichment.ResourceRadiusKm)
	if radius <= 0 {
		rw.BadRequest("radius must be positive")
		return
	}
	limit, _ := listWindow(r)

	res := s.enrich.NearbyResources(r.Context(), d, radius, limit)
	envelope := enrichmentEnvelope{
		DisasterID: d.ID,
		Status:     res.Status,
		Source:     res.Source,
		Payload:    res.Data,
	}

	s.hub.Publish(websocket.RoomForDisaster(d.ID), websocket.MessageTypeResources, envelope)
	rw.Success(envelope)
}

// HandleVerifyImage handles POST /api/disasters/{id}/verify-image. When the
// request names a report, the verification outcome is persisted onto it.
func (s *Server) HandleVerifyImage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req VerifyImageRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	d, ok := s.loadDisaster(rw, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	res := s.enrich.VerifyImage(r.Context(), req.ImageURL)

	if req.ReportID != "" {
		err := s.store.UpdateVerificationStatus(r.Context(), req.ReportID, res.Data.Status)
		switch {
		case errors.Is(err, store.ErrNotFound):
			rw.NotFound("report not found")
			return
		case err != nil:
			rw.StoreError(err)
			return
		}
		logging.Ctx(r.Context()).Info().
			Str("report_id", req.ReportID).
			Str("verification_status", string(res.Data.Status)).
			Msg("Report verification updated")
	}

	rw.Success(enrichmentEnvelope{
		DisasterID: d.ID,
		Status:     res.Status,
		Source:     res.Source,
		Payload:    res.Data,
	})
}

// HandleGeocode handles POST /api/geocode.
func (s *Server) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req GeocodeRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	res, err := s.enrich.Geocode(r.Context(), req.LocationName)
	if err != nil {
		rw.EnrichmentError("geocode", err)
		return
	}

	rw.Success(res)
}

// HandleExtractLocation handles POST /api/extract-location.
func (s *Server) HandleExtractLocation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ExtractLocationRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	res, err := s.enrich.ExtractLocation(r.Context(), req.Description)
	if err != nil {
		rw.EnrichmentError("extract-location", err)
		return
	}

	rw.Success(res)
}
