// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package models

import "time"

// Enrichment payloads are tagged per kind with an explicit schema rather
// than open-ended JSON blobs, so every consumer works with typed data.

// SocialPost is one aggregated social media report about a disaster.
type SocialPost struct {
	User       string    `json:"user"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Priority   bool      `json:"priority"`
	Platform   string    `json:"platform"`
	Engagement int       `json:"engagement"`
}

// OfficialUpdate is one aggregated update from a relief organization or
// government agency.
type OfficialUpdate struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	URL       string    `json:"url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Priority  string    `json:"priority"`
}

// ResourceType categorizes relief resources.
type ResourceType string

const (
	ResourceShelter  ResourceType = "shelter"
	ResourceFood     ResourceType = "food"
	ResourceMedical  ResourceType = "medical"
	ResourceSupplies ResourceType = "supplies"
)

// Resource is a relief resource located near a disaster.
type Resource struct {
	ID           string       `json:"id"`
	DisasterID   string       `json:"disaster_id"`
	Name         string       `json:"name"`
	LocationName string       `json:"location_name"`
	Location     Coordinates  `json:"location"`
	Type         ResourceType `json:"type"`
	Capacity     int          `json:"capacity"`
	Status       string       `json:"status"`
	Contact      string       `json:"contact,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	DistanceKm   float64      `json:"distance_km,omitempty"`
}

// VerificationResult is the outcome of image verification.
type VerificationResult struct {
	Status      VerificationStatus `json:"status"`
	Confidence  float64            `json:"confidence"`
	Summary     string             `json:"verification_result"`
	ProcessedAt time.Time          `json:"timestamp"`
}

// GeocodeResult pairs a location name with its resolved coordinate.
type GeocodeResult struct {
	Location    string      `json:"location"`
	Coordinates Coordinates `json:"coordinates"`
	Confidence  float64     `json:"confidence"`
}

// LocationExtraction is the outcome of extracting a location name from
// free-form descriptive text.
type LocationExtraction struct {
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Confidence  float64 `json:"confidence"`
}
