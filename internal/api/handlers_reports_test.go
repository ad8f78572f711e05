// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"net/http"
	"testing"

	"github.com/Vagishmaurya/disaster-management/internal/models"
)

func TestCreateReportStartsPending(t *testing.T) {
	env := newTestEnv(t, nil)

	d := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", Description: "water rising", OwnerID: "u1",
	})

	rec, envelope := env.doJSON(t, http.MethodPost, "/api/reports", CreateReportRequest{
		DisasterID: d.ID,
		UserID:     "citizen1",
		Content:    "Need food and water in Lower East Side",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var report models.Report
	dataAs(t, envelope, &report)
	if report.VerificationStatus != models.VerificationPending {
		t.Errorf("VerificationStatus = %q, want pending", report.VerificationStatus)
	}
	if report.DisasterID != d.ID {
		t.Errorf("DisasterID = %q, want %q", report.DisasterID, d.ID)
	}
}

func TestCreateReportWithImageIsDeterministic(t *testing.T) {
	env := newTestEnv(t, nil)

	d := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", Description: "water rising", OwnerID: "u1",
	})

	req := CreateReportRequest{
		DisasterID: d.ID,
		UserID:     "citizen1",
		Content:    "flooded street",
		ImageURL:   "https://example.com/flood.jpg",
	}

	_, first := env.doJSON(t, http.MethodPost, "/api/reports", req)
	_, second := env.doJSON(t, http.MethodPost, "/api/reports", req)

	var r1, r2 models.Report
	dataAs(t, first, &r1)
	dataAs(t, second, &r2)

	valid := map[models.VerificationStatus]bool{
		models.VerificationPending:  true,
		models.VerificationVerified: true,
		models.VerificationRejected: true,
	}
	if !valid[r1.VerificationStatus] {
		t.Errorf("VerificationStatus = %q, not a known status", r1.VerificationStatus)
	}
	if r1.VerificationStatus != r2.VerificationStatus {
		t.Errorf("same image produced %q then %q", r1.VerificationStatus, r2.VerificationStatus)
	}
}

func TestCreateReportUnknownDisaster(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.doJSON(t, http.MethodPost, "/api/reports", CreateReportRequest{
		DisasterID: "nope",
		UserID:     "citizen1",
		Content:    "anyone there?",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreateReportOnDeletedDisaster(t *testing.T) {
	env := newTestEnv(t, nil)

	d := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", Description: "water rising", OwnerID: "u1",
	})
	env.doJSON(t, http.MethodDelete, "/api/disasters/"+d.ID+"?user_id=u1", nil)

	rec, _ := env.doJSON(t, http.MethodPost, "/api/reports", CreateReportRequest{
		DisasterID: d.ID,
		UserID:     "citizen1",
		Content:    "late report",
	})
	if rec.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", rec.Code)
	}
}

func TestListReportsFilterByDisaster(t *testing.T) {
	env := newTestEnv(t, nil)

	d1 := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", Description: "water rising", OwnerID: "u1",
	})
	d2 := env.createDisaster(t, CreateDisasterRequest{
		Title: "Wildfire", Description: "smoke visible", OwnerID: "u2",
	})

	for _, disasterID := range []string{d1.ID, d1.ID, d2.ID} {
		rec, _ := env.doJSON(t, http.MethodPost, "/api/reports", CreateReportRequest{
			DisasterID: disasterID,
			UserID:     "citizen1",
			Content:    "status update",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create report: status %d", rec.Code)
		}
	}

	rec, envelope := env.doJSON(t, http.MethodGet, "/api/reports?disaster_id="+d1.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var reports []models.Report
	dataAs(t, envelope, &reports)
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	for _, r := range reports {
		if r.DisasterID != d1.ID {
			t.Errorf("report %s belongs to %q, want %q", r.ID, r.DisasterID, d1.ID)
		}
	}
}
