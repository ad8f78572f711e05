// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Vagishmaurya/disaster-management/internal/audit"
	"github.com/Vagishmaurya/disaster-management/internal/logging"
	"github.com/Vagishmaurya/disaster-management/internal/metrics"
	"github.com/Vagishmaurya/disaster-management/internal/models"
	"github.com/Vagishmaurya/disaster-management/internal/store"
	"github.com/Vagishmaurya/disaster-management/internal/websocket"
)

// HandleListDisasters handles GET /api/disasters.
func (s *Server) HandleListDisasters(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset := listWindow(r)
	filter := store.DisasterFilter{
		Tag:     r.URL.Query().Get("tag"),
		OwnerID: r.URL.Query().Get("owner_id"),
		Limit:   limit,
		Offset:  offset,
	}

	disasters, total, err := s.store.ListDisasters(r.Context(), filter)
	if err != nil {
		rw.StoreError(err)
		return
	}

	rw.SuccessWithPagination(disasters, paginationMeta(total, len(disasters), offset, limit))
}

// HandleGetDisaster handles GET /api/disasters/{id}. Soft-deleted disasters
// remain readable with their full audit history.
func (s *Server) HandleGetDisaster(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	d, ok := s.loadDisaster(rw, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rw.Success(d)
}

// HandleCreateDisaster handles POST /api/disasters. Location derivation is
// best-effort: extraction or geocoding failures are logged and the disaster
// is persisted without the derived fields.
func (s *Server) HandleCreateDisaster(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateDisasterRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	now := time.Now().UTC()
	d := &models.Disaster{
		ID:           uuid.NewString(),
		Title:        req.Title,
		LocationName: req.LocationName,
		Location:     req.Location,
		Description:  req.Description,
		Tags:         req.Tags,
		OwnerID:      req.OwnerID,
		CreatedAt:    now,
		UpdatedAt:    now,
		AuditTrail:   []models.AuditEntry{audit.NewCreateEntry(req.OwnerID)},
	}

	s.deriveLocation(r, d)

	if err := s.store.CreateDisaster(r.Context(), d); err != nil {
		rw.StoreError(err)
		return
	}
	metrics.RecordAuditAppend(string(models.AuditActionCreate))

	logging.Ctx(r.Context()).Info().
		Str("disaster_id", d.ID).
		Str("owner_id", sanitizeLogValue(d.OwnerID)).
		Msg("Disaster created")

	s.hub.Broadcast(websocket.MessageTypeDisaster, d)
	rw.Created(d)
}

// HandleUpdateDisaster handles PUT /api/disasters/{id}. Every accepted
// update appends exactly one audit entry; the entry's change set lists only
// the fields whose canonical form actually changed.
func (s *Server) HandleUpdateDisaster(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req UpdateDisasterRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	d, ok := s.loadDisaster(rw, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if d.Deleted() {
		rw.Gone("disaster has been deleted")
		return
	}
	if req.UserID != d.OwnerID {
		rw.Forbidden("only the owner may update this disaster")
		return
	}

	updated := *d
	locationNameChanged := false
	if req.Title != nil {
		updated.Title = *req.Title
	}
	if req.LocationName != nil && *req.LocationName != d.LocationName {
		updated.LocationName = *req.LocationName
		locationNameChanged = true
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Tags != nil {
		updated.Tags = *req.Tags
	}
	if req.Location != nil {
		updated.Location = req.Location
	} else if locationNameChanged {
		// The stored coordinate belonged to the old name; re-derive, and
		// keep going without one when geocoding fails.
		updated.Location = nil
		if res, err := s.enrich.Geocode(r.Context(), updated.LocationName); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("disaster_id", d.ID).
				Msg("Geocode failed during update, location cleared")
		} else {
			updated.Location = &res.Coordinates
		}
	}

	entry := audit.Diff(d, &updated, req.UserID)
	updated.AuditTrail = audit.Append(d.AuditTrail, entry)
	updated.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateDisaster(r.Context(), &updated); err != nil {
		rw.StoreError(err)
		return
	}
	metrics.RecordAuditAppend(string(models.AuditActionUpdate))

	logging.Ctx(r.Context()).Info().
		Str("disaster_id", d.ID).
		Int("changed_fields", len(entry.Changes)).
		Msg("Disaster updated")

	s.hub.Broadcast(websocket.MessageTypeDisaster, &updated)
	s.hub.Publish(websocket.RoomForDisaster(d.ID), websocket.MessageTypeDisaster, &updated)
	rw.Success(&updated)
}

// HandleDeleteDisaster handles DELETE /api/disasters/{id}. Deletion is soft:
// a delete entry is appended and the disaster stays queryable.
func (s *Server) HandleDeleteDisaster(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		rw.BadRequest("user_id query parameter is required")
		return
	}
	reason := r.URL.Query().Get("reason")

	d, ok := s.loadDisaster(rw, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if d.Deleted() {
		rw.Gone("disaster has already been deleted")
		return
	}
	if userID != d.OwnerID {
		rw.Forbidden("only the owner may delete this disaster")
		return
	}

	updated := *d
	updated.AuditTrail = audit.Append(d.AuditTrail, audit.NewDeleteEntry(userID, reason))
	updated.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateDisaster(r.Context(), &updated); err != nil {
		rw.StoreError(err)
		return
	}
	metrics.RecordAuditAppend(string(models.AuditActionDelete))

	logging.Ctx(r.Context()).Info().
		Str("disaster_id", d.ID).
		Str("user_id", sanitizeLogValue(userID)).
		Msg("Disaster deleted")

	s.hub.Broadcast(websocket.MessageTypeDisasterGone, &updated)
	s.hub.Publish(websocket.RoomForDisaster(d.ID), websocket.MessageTypeDisasterGone, &updated)
	rw.Success(&updated)
}

// loadDisaster fetches a disaster by ID, writing the error response on
// failure.
func (s *Server) loadDisaster(rw *ResponseWriter, r *http.Request, id string) (*models.Disaster, bool) {
	if id == "" {
		rw.BadRequest("disaster id is required")
		return nil, false
	}
	d, err := s.store.GetDisaster(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("disaster not found")
		} else {
			rw.StoreError(err)
		}
		return nil, false
	}
	return d, true
}

// deriveLocation fills in LocationName and Location when the caller omitted
// them. Failures here never block persistence of the primary fields.
func (s *Server) deriveLocation(r *http.Request, d *models.Disaster) {
	ctx := r.Context()

	if d.LocationName == "" {
		extraction, err := s.enrich.ExtractLocation(ctx, d.Description)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Location extraction failed, proceeding without")
			return
		}
		d.LocationName = extraction.Location
	}

	if d.Location == nil && d.LocationName != "" {
		res, err := s.enrich.Geocode(ctx, d.LocationName)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("location_name", sanitizeLogValue(d.LocationName)).
				Msg("Geocode failed, proceeding without coordinates")
			return
		}
		d.Location = &res.Coordinates
	}
}
