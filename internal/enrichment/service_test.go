// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package enrichment

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Vagishmaurya/disaster-management/internal/cache"
	"github.com/Vagishmaurya/disaster-management/internal/models"
	"github.com/Vagishmaurya/disaster-management/internal/store"
)

type countingGeocoder struct {
	calls atomic.Int64
	err   error
}

func (g *countingGeocoder) Geocode(_ context.Context, name string) (models.GeocodeResult, error) {
	g.calls.Add(1)
	if g.err != nil {
		return models.GeocodeResult{}, g.err
	}
	return models.GeocodeResult{
		Location:    name,
		Coordinates: models.Coordinates{Lat: 1, Lng: 2},
		Confidence:  0.9,
	}, nil
}

type failingSocial struct{ calls atomic.Int64 }

func (f *failingSocial) SocialMedia(context.Context, *models.Disaster) ([]models.SocialPost, error) {
	f.calls.Add(1)
	return nil, errors.New("upstream unavailable")
}

type failingVerifier struct{}

func (failingVerifier) VerifyImage(context.Context, string) (models.VerificationResult, error) {
	return models.VerificationResult{}, errors.New("vision service down")
}

type failingExtractor struct{}

func (failingExtractor) ExtractLocation(context.Context, string) (models.LocationExtraction, error) {
	return models.LocationExtraction{}, errors.New("extraction service down")
}

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if opts.Now == nil {
		fixed := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
		opts.Now = func() time.Time { return fixed }
	}
	return NewService(cache.NewMemory(ctx, 0), store.NewMemory(), opts)
}

func TestGeocodeCacheAside(t *testing.T) {
	gc := &countingGeocoder{}
	s := newTestService(t, Options{Geocoder: gc})
	ctx := context.Background()

	first, err := s.Geocode(ctx, "Springfield")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	second, err := s.Geocode(ctx, "Springfield")
	if err != nil {
		t.Fatalf("Geocode (cached): %v", err)
	}
	if gc.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", gc.calls.Load())
	}
	if first.Coordinates != second.Coordinates {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}

	// A different input is a separate cache entry.
	if _, err := s.Geocode(ctx, "Shelbyville"); err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if gc.calls.Load() != 2 {
		t.Errorf("provider calls = %d, want 2", gc.calls.Load())
	}
}

func TestGeocodePropagatesError(t *testing.T) {
	gc := &countingGeocoder{err: errors.New("quota exceeded")}
	s := newTestService(t, Options{Geocoder: gc})

	if _, err := s.Geocode(context.Background(), "Anywhere"); err == nil {
		t.Fatal("expected provider error to propagate")
	}
	if _, err := s.Geocode(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty location name")
	}
}

func TestTableGeocoderKnownCity(t *testing.T) {
	s := newTestService(t, Options{})
	res, err := s.Geocode(context.Background(), "Miami, FL")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	want := models.Coordinates{Lat: 25.7617, Lng: -80.1918}
	if res.Coordinates != want {
		t.Errorf("coordinates = %+v, want %+v", res.Coordinates, want)
	}
	if res.Confidence != 0.9 {
		t.Errorf("confidence = %f", res.Confidence)
	}
}

func TestTableGeocoderUnknownIsStable(t *testing.T) {
	g := TableGeocoder{}
	a, err := g.Geocode(context.Background(), "Nowhereville")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	b, _ := g.Geocode(context.Background(), "Nowhereville")
	if a.Coordinates != b.Coordinates {
		t.Errorf("unstable coordinates: %+v vs %+v", a.Coordinates, b.Coordinates)
	}
	if a.Coordinates.Lat < -60 || a.Coordinates.Lat > 60 {
		t.Errorf("lat out of bounds: %f", a.Coordinates.Lat)
	}
	if a.Coordinates.Lng < -180 || a.Coordinates.Lng > 180 {
		t.Errorf("lng out of bounds: %f", a.Coordinates.Lng)
	}
	if a.Confidence >= 0.9 {
		t.Errorf("derived coordinate should carry low confidence, got %f", a.Confidence)
	}
}

func TestExtractLocationPatterns(t *testing.T) {
	s := newTestService(t, Options{})
	ctx := context.Background()

	tests := []struct {
		description string
		want        string
	}{
		{"Major flooding in Miami Beach after the storm surge", "Miami Beach"},
		{"Wildfire spreading near Pasadena with heavy smoke", "Pasadena"},
		{"Building collapse at Union Square reported", "Union Square"},
		{"Severe damage reported across Lower Manhattan, NY today", "Lower Manhattan, NY"},
	}
	for _, tc := range tests {
		got, err := s.ExtractLocation(ctx, tc.description)
		if err != nil {
			t.Fatalf("ExtractLocation(%q): %v", tc.description, err)
		}
		if got.Location != tc.want {
			t.Errorf("ExtractLocation(%q) = %q, want %q", tc.description, got.Location, tc.want)
		}
	}

	got, err := s.ExtractLocation(ctx, "no place mentioned here")
	if err != nil {
		t.Fatalf("ExtractLocation: %v", err)
	}
	if got.Location != "" {
		t.Errorf("expected empty location, got %q", got.Location)
	}
}

func TestExtractLocationPropagatesError(t *testing.T) {
	s := newTestService(t, Options{Extractor: failingExtractor{}})
	if _, err := s.ExtractLocation(context.Background(), "flooding in Miami"); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

func TestSocialMediaDegradesToFallback(t *testing.T) {
	social := &failingSocial{}
	s := newTestService(t, Options{Social: social})
	d := &models.Disaster{
		ID:           "d1",
		Title:        "Coastal Flooding",
		LocationName: "Miami Beach",
		Tags:         []string{"flood", "urgent"},
	}

	res := s.SocialMedia(context.Background(), d)
	if res.Status != StatusDegraded {
		t.Fatalf("status = %s, want degraded", res.Status)
	}
	if len(res.Data) == 0 {
		t.Fatal("fallback posts empty")
	}
	found := false
	for _, p := range res.Data {
		if strings.Contains(p.Content, "Miami Beach") || strings.Contains(p.Content, "Coastal Flooding") {
			found = true
		}
		if strings.Contains(p.Content, "#flood") {
			found = true
		}
	}
	if !found {
		t.Errorf("fallback posts not contextual: %+v", res.Data)
	}

	// Degraded responses must not be cached: the provider is retried.
	before := social.calls.Load()
	res2 := s.SocialMedia(context.Background(), d)
	if res2.Status != StatusDegraded {
		t.Errorf("second status = %s", res2.Status)
	}
	if social.calls.Load() != before+1 {
		t.Errorf("degraded result was cached: calls %d -> %d", before, social.calls.Load())
	}
}

func TestOfficialUpdatesFallbackWithoutProvider(t *testing.T) {
	s := newTestService(t, Options{})
	d := &models.Disaster{ID: "d1", Title: "Earthquake", LocationName: "San Francisco"}

	res := s.OfficialUpdates(context.Background(), d)
	if res.Status != StatusDegraded {
		t.Fatalf("status = %s, want degraded", res.Status)
	}
	if len(res.Data) == 0 {
		t.Fatal("fallback updates empty")
	}
	if !strings.Contains(res.Data[0].Title, "Earthquake") {
		t.Errorf("fallback not contextual: %+v", res.Data[0])
	}
}

func TestVerifyImageDegradesToPending(t *testing.T) {
	s := newTestService(t, Options{Verifier: failingVerifier{}})

	res := s.VerifyImage(context.Background(), "https://example.com/flood.jpg")
	if res.Status != StatusDegraded {
		t.Fatalf("status = %s, want degraded", res.Status)
	}
	if res.Data.Status != models.VerificationPending {
		t.Errorf("verification status = %s, want pending", res.Data.Status)
	}
}

func TestVerifyImageDeterministic(t *testing.T) {
	s := newTestService(t, Options{})
	url := "https://example.com/damage.jpg"

	a := s.VerifyImage(context.Background(), url)
	b := s.VerifyImage(context.Background(), url)
	if a.Status != StatusOK || b.Status != StatusOK {
		t.Fatalf("statuses: %s, %s", a.Status, b.Status)
	}
	if a.Data.Status != b.Data.Status || a.Data.Confidence != b.Data.Confidence {
		t.Errorf("verification not stable: %+v vs %+v", a.Data, b.Data)
	}
}

func TestNearbyResourcesFromStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resources := store.NewMemory()
	s := NewService(cache.NewMemory(ctx, 0), resources, Options{})

	center := models.Coordinates{Lat: 40.7128, Lng: -74.0060}
	if err := resources.PutResource(ctx, &models.Resource{
		ID:       "r1",
		Name:     "Downtown Shelter",
		Type:     models.ResourceShelter,
		Location: models.Coordinates{Lat: 40.7138, Lng: -74.0055},
	}); err != nil {
		t.Fatalf("PutResource: %v", err)
	}

	d := &models.Disaster{ID: "d1", Title: "Flood", Location: &center}
	res := s.NearbyResources(ctx, d, 10, 0)
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok", res.Status)
	}
	if len(res.Data) != 1 || res.Data[0].ID != "r1" {
		t.Errorf("resources = %+v", res.Data)
	}
}

func TestNearbyResourcesFallback(t *testing.T) {
	s := newTestService(t, Options{})
	center := models.Coordinates{Lat: 25.7617, Lng: -80.1918}
	d := &models.Disaster{ID: "d1", Title: "Hurricane", LocationName: "Miami", Location: &center}

	// Empty store: contextual fallback around the disaster.
	res := s.NearbyResources(context.Background(), d, 10, 0)
	if res.Status != StatusDegraded {
		t.Fatalf("status = %s, want degraded", res.Status)
	}
	if len(res.Data) == 0 {
		t.Fatal("fallback resources empty")
	}
	for _, r := range res.Data {
		if r.DisasterID != "d1" {
			t.Errorf("fallback resource not bound to disaster: %+v", r)
		}
		if dlat := r.Location.Lat - center.Lat; dlat > 0.05 || dlat < -0.05 {
			t.Errorf("fallback resource too far from center: %+v", r.Location)
		}
	}

	// No coordinates at all still yields a usable fallback.
	res = s.NearbyResources(context.Background(), &models.Disaster{ID: "d2", Title: "Storm"}, 10, 0)
	if res.Status != StatusDegraded || len(res.Data) == 0 {
		t.Errorf("no-coordinates fallback: status=%s len=%d", res.Status, len(res.Data))
	}
}
