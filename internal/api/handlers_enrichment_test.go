// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Vagishmaurya/disaster-management/internal/enrichment"
	"github.com/Vagishmaurya/disaster-management/internal/models"
)

// enrichmentBody mirrors enrichmentEnvelope for decoding in tests.
type enrichmentBody struct {
	DisasterID string            `json:"disaster_id"`
	Status     enrichment.Status `json:"status"`
	Source     string            `json:"source"`
}

func TestSocialMediaEndpointDegradesToFallback(t *testing.T) {
	env := newTestEnv(t, nil)

	d := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", Description: "water rising", OwnerID: "u1", Tags: []string{"flood"},
	})

	rec, envelope := env.doJSON(t, http.MethodGet, "/api/disasters/"+d.ID+"/social-media", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body enrichmentBody
	dataAs(t, envelope, &body)
	if body.Status != enrichment.StatusDegraded {
		t.Errorf("Status = %q, want degraded without a provider", body.Status)
	}
	if body.DisasterID != d.ID {
		t.Errorf("DisasterID = %q, want %q", body.DisasterID, d.ID)
	}
}

func TestOfficialUpdatesEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	d := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", Description: "water rising", OwnerID: "u1",
	})

	rec, envelope := env.doJSON(t, http.MethodGet, "/api/disasters/"+d.ID+"/official-updates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		enrichmentBody
		Payload []models.OfficialUpdate `json:"payload"`
	}
	dataAs(t, envelope, &body)
	if len(body.Payload) == 0 {
		t.Fatal("payload empty, want fallback updates")
	}
}

func TestNearbyResourcesEndpointUsesStore(t *testing.T) {
	env := newTestEnv(t, nil)

	d := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", LocationName: "Miami, FL",
		Description: "water rising", OwnerID: "u1",
	})

	shelter := &models.Resource{
		ID:         "res-1",
		DisasterID: d.ID,
		Name:       "Downtown Shelter",
		Location:   models.Coordinates{Lat: 25.77, Lng: -80.19},
		Type:       models.ResourceShelter,
		Status:     "open",
		CreatedAt:  time.Now().UTC(),
	}
	if err := env.store.PutResource(context.Background(), shelter); err != nil {
		t.Fatalf("PutResource: %v", err)
	}

	rec, envelope := env.doJSON(t, http.MethodGet, "/api/disasters/"+d.ID+"/resources?radius=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		enrichmentBody
		Payload []models.Resource `json:"payload"`
	}
	dataAs(t, envelope, &body)
	if body.Status != enrichment.StatusOK {
		t.Fatalf("Status = %q, want ok with a stocked store", body.Status)
	}
	if len(body.Payload) != 1 || body.Payload[0].ID != "res-1" {
		t.Errorf("payload = %+v, want the stored shelter", body.Payload)
	}
}

func TestNearbyResourcesEndpointRejectsBadRadius(t *testing.T) {
	env := newTestEnv(t, nil)

	d := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", Description: "water rising", OwnerID: "u1",
	})

	rec, _ := env.doJSON(t, http.MethodGet, "/api/disasters/"+d.ID+"/resources?radius=-5", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestVerifyImageUpdatesReport(t *testing.T) {
	env := newTestEnv(t, nil)

	d := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", Description: "water rising", OwnerID: "u1",
	})

	_, created := env.doJSON(t, http.MethodPost, "/api/reports", CreateReportRequest{
		DisasterID: d.ID,
		UserID:     "citizen1",
		Content:    "flooded street",
	})
	var report models.Report
	dataAs(t, created, &report)

	rec, envelope := env.doJSON(t, http.MethodPost, "/api/disasters/"+d.ID+"/verify-image", VerifyImageRequest{
		ImageURL: "https://example.com/evidence.jpg",
		ReportID: report.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		enrichmentBody
		Payload models.VerificationResult `json:"payload"`
	}
	dataAs(t, envelope, &body)

	stored, err := env.store.GetReport(context.Background(), report.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if stored.VerificationStatus != body.Payload.Status {
		t.Errorf("stored status %q != returned %q", stored.VerificationStatus, body.Payload.Status)
	}
}

func TestVerifyImageUnknownReport(t *testing.T) {
	env := newTestEnv(t, nil)

	d := env.createDisaster(t, CreateDisasterRequest{
		Title: "Flooding", Description: "water rising", OwnerID: "u1",
	})

	rec, _ := env.doJSON(t, http.MethodPost, "/api/disasters/"+d.ID+"/verify-image", VerifyImageRequest{
		ImageURL: "https://example.com/evidence.jpg",
		ReportID: "nope",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGeocodeEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, envelope := env.doJSON(t, http.MethodPost, "/api/geocode", GeocodeRequest{
		LocationName: "Miami, FL",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var res models.GeocodeResult
	dataAs(t, envelope, &res)
	if res.Coordinates.Lat != 25.7617 || res.Coordinates.Lng != -80.1918 {
		t.Errorf("Coordinates = %+v, want Miami", res.Coordinates)
	}
}

func TestExtractLocationEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, envelope := env.doJSON(t, http.MethodPost, "/api/extract-location", ExtractLocationRequest{
		Description: "Bridge collapse in Houston near the interstate",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var res models.LocationExtraction
	dataAs(t, envelope, &res)
	if res.Location != "Houston" {
		t.Errorf("Location = %q, want Houston", res.Location)
	}
}
