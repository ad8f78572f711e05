// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

// Package store defines the persistence contracts for disasters, reports,
// and relief resources, together with a BadgerDB document store for
// production use and an in-memory store for tests.
package store

import (
	"context"
	"errors"

	"github.com/Vagishmaurya/disaster-management/internal/models"
)

// ErrNotFound indicates the referenced entity does not exist.
// It is surfaced to callers verbatim and never retried.
var ErrNotFound = errors.New("store: not found")

// DisasterFilter narrows a disaster listing.
type DisasterFilter struct {
	// Tag keeps disasters whose tag list contains this tag.
	Tag string

	// OwnerID keeps disasters owned by this actor.
	OwnerID string

	Limit  int
	Offset int
}

// ReportFilter narrows a report listing.
type ReportFilter struct {
	DisasterID         string
	UserID             string
	VerificationStatus models.VerificationStatus

	Limit  int
	Offset int
}

// DisasterStore persists disasters. ListDisasters returns entities
// newest-first plus the total count matching the filter before pagination.
type DisasterStore interface {
	CreateDisaster(ctx context.Context, d *models.Disaster) error
	GetDisaster(ctx context.Context, id string) (*models.Disaster, error)
	UpdateDisaster(ctx context.Context, d *models.Disaster) error
	ListDisasters(ctx context.Context, filter DisasterFilter) ([]models.Disaster, int, error)
}

// ReportStore persists citizen reports.
type ReportStore interface {
	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, int, error)
	UpdateVerificationStatus(ctx context.Context, id string, status models.VerificationStatus) error
}

// ResourceStore answers geospatial queries over relief resources.
type ResourceStore interface {
	// PutResource stores or overwrites a resource.
	PutResource(ctx context.Context, r *models.Resource) error

	// NearbyResources returns up to limit resources within radiusKm of
	// center, nearest first, with DistanceKm populated. Zero results is not
	// an error.
	NearbyResources(ctx context.Context, center models.Coordinates, radiusKm float64, limit int) ([]models.Resource, error)
}

// Store bundles the three collections behind one handle.
type Store interface {
	DisasterStore
	ReportStore
	ResourceStore
}
