// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Vagishmaurya/disaster-management/internal/models"
)

// Memory is an in-memory Store used by tests and as a zero-setup default.
// All methods are safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	disasters map[string]models.Disaster
	reports   map[string]models.Report
	resources map[string]models.Resource
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		disasters: make(map[string]models.Disaster),
		reports:   make(map[string]models.Report),
		resources: make(map[string]models.Resource),
	}
}

// CreateDisaster stores a new disaster.
func (s *Memory) CreateDisaster(_ context.Context, d *models.Disaster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disasters[d.ID] = *d
	return nil
}

// GetDisaster retrieves a disaster by ID.
func (s *Memory) GetDisaster(_ context.Context, id string) (*models.Disaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.disasters[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

// UpdateDisaster overwrites an existing disaster.
func (s *Memory) UpdateDisaster(_ context.Context, d *models.Disaster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disasters[d.ID]; !ok {
		return ErrNotFound
	}
	s.disasters[d.ID] = *d
	return nil
}

// ListDisasters returns disasters newest-first with the total matching count.
func (s *Memory) ListDisasters(_ context.Context, filter DisasterFilter) ([]models.Disaster, int, error) {
	s.mu.RLock()
	var all []models.Disaster
	for _, d := range s.disasters {
		if filter.OwnerID != "" && d.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Tag != "" && !containsTag(d.Tags, filter.Tag) {
			continue
		}
		all = append(all, d)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	return paginate(all, filter.Limit, filter.Offset), total, nil
}

// CreateReport stores a new report.
func (s *Memory) CreateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = *r
	return nil
}

// GetReport retrieves a report by ID.
func (s *Memory) GetReport(_ context.Context, id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// ListReports returns reports newest-first with the total matching count.
func (s *Memory) ListReports(_ context.Context, filter ReportFilter) ([]models.Report, int, error) {
	s.mu.RLock()
	var all []models.Report
	for _, r := range s.reports {
		if filter.DisasterID != "" && r.DisasterID != filter.DisasterID {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.VerificationStatus != "" && r.VerificationStatus != filter.VerificationStatus {
			continue
		}
		all = append(all, r)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	return paginate(all, filter.Limit, filter.Offset), total, nil
}

// UpdateVerificationStatus sets the verification status on a report.
func (s *Memory) UpdateVerificationStatus(_ context.Context, id string, status models.VerificationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	r.VerificationStatus = status
	s.reports[id] = r
	return nil
}

// PutResource stores or overwrites a resource.
func (s *Memory) PutResource(_ context.Context, r *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID] = *r
	return nil
}

// NearbyResources returns resources within radiusKm of center, nearest first.
func (s *Memory) NearbyResources(_ context.Context, center models.Coordinates, radiusKm float64, limit int) ([]models.Resource, error) {
	s.mu.RLock()
	var nearby []models.Resource
	for _, r := range s.resources {
		if dist := haversineKm(center, r.Location); dist <= radiusKm {
			r.DistanceKm = dist
			nearby = append(nearby, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}
