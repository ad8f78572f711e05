// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Vagishmaurya/disaster-management/internal/models"
)

// Providers are the external dependencies of the pipeline. Each interface
// models one upstream service so the service layer can wrap them in circuit
// breakers and swap in stubs under test.

// LocationExtractor derives a place name from free-form descriptive text.
type LocationExtractor interface {
	ExtractLocation(ctx context.Context, description string) (models.LocationExtraction, error)
}

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, locationName string) (models.GeocodeResult, error)
}

// ImageVerifier analyzes a report image for authenticity and disaster context.
type ImageVerifier interface {
	VerifyImage(ctx context.Context, imageURL string) (models.VerificationResult, error)
}

// SocialMediaProvider aggregates social posts mentioning a disaster.
type SocialMediaProvider interface {
	SocialMedia(ctx context.Context, d *models.Disaster) ([]models.SocialPost, error)
}

// OfficialUpdatesProvider aggregates relief-organization and government
// updates relevant to a disaster.
type OfficialUpdatesProvider interface {
	OfficialUpdates(ctx context.Context, d *models.Disaster) ([]models.OfficialUpdate, error)
}

// PatternExtractor extracts locations with a fixed set of phrase patterns.
// It is the default extractor and also serves as the last-resort path when a
// smarter upstream extractor is unreachable.
type PatternExtractor struct{}

// The preposition matches case-insensitively but the captured place name must
// be capitalized, so trailing lowercase prose never leaks into the capture.
var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:\bin\s+)([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*(?:,\s*[A-Z]{2})?)`),
	regexp.MustCompile(`(?i:\bnear\s+)([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*)`),
	regexp.MustCompile(`(?i:\bat\s+)([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*)`),
	regexp.MustCompile(`([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*,\s*[A-Z]{2})\b`),
}

func (PatternExtractor) ExtractLocation(_ context.Context, description string) (models.LocationExtraction, error) {
	for _, pat := range locationPatterns {
		if m := pat.FindStringSubmatch(description); m != nil {
			return models.LocationExtraction{
				Description: description,
				Location:    strings.TrimSpace(m[1]),
				Confidence:  0.7,
			}, nil
		}
	}
	return models.LocationExtraction{Description: description}, nil
}

// TableGeocoder resolves well-known place names from a static table and
// derives a stable pseudo-coordinate for everything else, so repeated calls
// with the same input always agree.
type TableGeocoder struct{}

var knownPlaces = map[string]models.Coordinates{
	"new york":      {Lat: 40.7128, Lng: -74.0060},
	"manhattan":     {Lat: 40.7831, Lng: -73.9712},
	"los angeles":   {Lat: 34.0522, Lng: -118.2437},
	"miami":         {Lat: 25.7617, Lng: -80.1918},
	"houston":       {Lat: 29.7604, Lng: -95.3698},
	"new orleans":   {Lat: 29.9511, Lng: -90.0715},
	"san francisco": {Lat: 37.7749, Lng: -122.4194},
	"chicago":       {Lat: 41.8781, Lng: -87.6298},
	"seattle":       {Lat: 47.6062, Lng: -122.3321},
	"delhi":         {Lat: 28.7041, Lng: 77.1025},
	"mumbai":        {Lat: 19.0760, Lng: 72.8777},
	"tokyo":         {Lat: 35.6762, Lng: 139.6503},
}

func (TableGeocoder) Geocode(_ context.Context, locationName string) (models.GeocodeResult, error) {
	if locationName == "" {
		return models.GeocodeResult{}, fmt.Errorf("geocode: empty location name")
	}
	normalized := strings.ToLower(strings.TrimSpace(locationName))
	// "Miami, FL" and "Miami Beach, Miami" should both hit the table.
	for place, coords := range knownPlaces {
		if strings.Contains(normalized, place) {
			return models.GeocodeResult{
				Location:    locationName,
				Coordinates: coords,
				Confidence:  0.9,
			}, nil
		}
	}
	return models.GeocodeResult{
		Location:    locationName,
		Coordinates: derivedCoordinates(normalized),
		Confidence:  0.3,
	}, nil
}

// derivedCoordinates maps an unknown place name to a stable coordinate inside
// plausible bounds. The same name always yields the same point.
func derivedCoordinates(name string) models.Coordinates {
	sum := sha256.Sum256([]byte(name))
	lat := float64(binary.BigEndian.Uint32(sum[0:4])%120000)/1000.0 - 60.0
	lng := float64(binary.BigEndian.Uint32(sum[4:8])%360000)/1000.0 - 180.0
	return models.Coordinates{Lat: lat, Lng: lng}
}

// DigestVerifier scores images deterministically from a digest of the URL.
// Real deployments replace this with a vision-model client; the stable scores
// keep verification outcomes reproducible in development and tests.
type DigestVerifier struct{}

func (DigestVerifier) VerifyImage(_ context.Context, imageURL string) (models.VerificationResult, error) {
	if imageURL == "" {
		return models.VerificationResult{}, fmt.Errorf("verify image: empty image URL")
	}
	sum := sha256.Sum256([]byte(imageURL))
	score := float64(binary.BigEndian.Uint16(sum[0:2])) / 65535.0

	status := models.VerificationVerified
	summary := "Image appears authentic and consistent with reported disaster context"
	switch {
	case score < 0.15:
		status = models.VerificationRejected
		summary = "Image shows signs of manipulation or is inconsistent with the reported context"
	case score < 0.35:
		status = models.VerificationPending
		summary = "Image authenticity could not be conclusively determined"
	}
	return models.VerificationResult{
		Status:      status,
		Confidence:  0.5 + score/2,
		Summary:     summary,
		ProcessedAt: time.Now().UTC(),
	}, nil
}
