// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Vagishmaurya/disaster-management/internal/logging"
	"github.com/Vagishmaurya/disaster-management/internal/models"
	"github.com/Vagishmaurya/disaster-management/internal/store"
	"github.com/Vagishmaurya/disaster-management/internal/websocket"
)

// HandleListReports handles GET /api/reports.
func (s *Server) HandleListReports(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset := listWindow(r)
	filter := store.ReportFilter{
		DisasterID:         r.URL.Query().Get("disaster_id"),
		UserID:             r.URL.Query().Get("user_id"),
		VerificationStatus: models.VerificationStatus(r.URL.Query().Get("verification_status")),
		Limit:              limit,
		Offset:             offset,
	}

	reports, total, err := s.store.ListReports(r.Context(), filter)
	if err != nil {
		rw.StoreError(err)
		return
	}

	rw.SuccessWithPagination(reports, paginationMeta(total, len(reports), offset, limit))
}

// HandleCreateReport handles POST /api/reports. The referenced disaster must
// exist and not be deleted. New reports start as pending; image-bearing
// reports additionally run through verification, which may immediately
// settle the status.
func (s *Server) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateReportRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	d, err := s.store.GetDisaster(r.Context(), req.DisasterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("disaster not found")
		} else {
			rw.StoreError(err)
		}
		return
	}
	if d.Deleted() {
		rw.Gone("disaster has been deleted")
		return
	}

	report := &models.Report{
		ID:                 uuid.NewString(),
		DisasterID:         req.DisasterID,
		UserID:             req.UserID,
		Content:            req.Content,
		ImageURL:           req.ImageURL,
		VerificationStatus: models.VerificationPending,
		CreatedAt:          time.Now().UTC(),
	}

	if req.ImageURL != "" {
		res := s.enrich.VerifyImage(r.Context(), req.ImageURL)
		report.VerificationStatus = res.Data.Status
	}

	if err := s.store.CreateReport(r.Context(), report); err != nil {
		rw.StoreError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("report_id", report.ID).
		Str("disaster_id", report.DisasterID).
		Str("verification_status", string(report.VerificationStatus)).
		Msg("Report created")

	s.hub.Publish(websocket.RoomForDisaster(report.DisasterID), websocket.MessageTypeReport, report)
	rw.Created(report)
}
