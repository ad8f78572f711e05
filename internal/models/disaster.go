// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

// Package models defines the domain types shared across the application:
// disasters, citizen reports, audit trail entries, and the payloads produced
// by the enrichment pipeline.
package models

import "time"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AuditAction identifies the kind of mutation recorded in an audit entry.
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// FieldChange records the before/after serialized values of one field.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// AuditEntry is one immutable record in an entity's append-only audit trail.
// Changes is present only for update entries and contains only the fields
// whose canonical serialization actually changed.
type AuditEntry struct {
	Action    AuditAction            `json:"action"`
	UserID    string                 `json:"user_id"`
	Timestamp time.Time              `json:"timestamp"`
	Changes   map[string]FieldChange `json:"changes,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
}

// Disaster is the primary enriched entity. LocationName and Location are
// derived best-effort fields: their absence never blocks persistence of the
// primary fields. AuditTrail is append-only; entries are never reordered,
// truncated, or mutated. A disaster with a trailing delete entry is
// soft-deleted but remains queryable with its full history.
type Disaster struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	LocationName string       `json:"location_name"`
	Location     *Coordinates `json:"location,omitempty"`
	Description  string       `json:"description"`
	Tags         []string     `json:"tags"`
	OwnerID      string       `json:"owner_id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	AuditTrail   []AuditEntry `json:"audit_trail"`
}

// Deleted reports whether the disaster is soft-deleted, which is the case
// when the most recent audit entry is a delete.
func (d *Disaster) Deleted() bool {
	if len(d.AuditTrail) == 0 {
		return false
	}
	return d.AuditTrail[len(d.AuditTrail)-1].Action == AuditActionDelete
}

// VerificationStatus is the lifecycle state of a report's image verification.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Report is a citizen-submitted situation report attached to a disaster.
type Report struct {
	ID                 string             `json:"id"`
	DisasterID         string             `json:"disaster_id"`
	UserID             string             `json:"user_id"`
	Content            string             `json:"content"`
	ImageURL           string             `json:"image_url,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	CreatedAt          time.Time          `json:"created_at"`
}
