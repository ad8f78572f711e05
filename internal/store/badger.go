// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/Vagishmaurya/disaster-management/internal/metrics"
	"github.com/Vagishmaurya/disaster-management/internal/models"
)

// Key prefixes for BadgerDB storage.
const (
	disasterKeyPrefix = "disaster:"
	reportKeyPrefix   = "report:"
	resourceKeyPrefix = "resource:"
)

// Badger implements Store on an embedded BadgerDB instance. Entities are
// stored as JSON documents under per-collection key prefixes. Writes are
// last-writer-wins; callers needing strict same-entity ordering sequence
// their own writes.
type Badger struct {
	db *badger.DB
}

// NewBadger wraps an open BadgerDB handle. The caller owns the handle's
// lifecycle.
func NewBadger(db *badger.DB) *Badger {
	return &Badger{db: db}
}

// OpenBadger opens a BadgerDB at path and returns the wrapped store plus the
// raw handle for shutdown. An empty path opens an in-memory instance.
func OpenBadger(path string) (*Badger, *badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is noisy; zerolog covers the rest
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return NewBadger(db), db, nil
}

// CreateDisaster stores a new disaster document.
func (s *Badger) CreateDisaster(_ context.Context, d *models.Disaster) error {
	return s.put(disasterKeyPrefix+d.ID, d)
}

// GetDisaster retrieves a disaster by ID.
func (s *Badger) GetDisaster(_ context.Context, id string) (*models.Disaster, error) {
	var d models.Disaster
	if err := s.get(disasterKeyPrefix+id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDisaster overwrites a disaster document. The disaster must exist.
func (s *Badger) UpdateDisaster(ctx context.Context, d *models.Disaster) error {
	if _, err := s.GetDisaster(ctx, d.ID); err != nil {
		return err
	}
	return s.put(disasterKeyPrefix+d.ID, d)
}

// ListDisasters returns disasters newest-first with the total matching count.
func (s *Badger) ListDisasters(_ context.Context, filter DisasterFilter) ([]models.Disaster, int, error) {
	var all []models.Disaster
	err := s.scan(disasterKeyPrefix, func(val []byte) error {
		var d models.Disaster
		if err := json.Unmarshal(val, &d); err != nil {
			return fmt.Errorf("unmarshal disaster: %w", err)
		}
		if filter.OwnerID != "" && d.OwnerID != filter.OwnerID {
			return nil
		}
		if filter.Tag != "" && !containsTag(d.Tags, filter.Tag) {
			return nil
		}
		all = append(all, d)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	return paginate(all, filter.Limit, filter.Offset), total, nil
}

// CreateReport stores a new report document.
func (s *Badger) CreateReport(_ context.Context, r *models.Report) error {
	return s.put(reportKeyPrefix+r.ID, r)
}

// GetReport retrieves a report by ID.
func (s *Badger) GetReport(_ context.Context, id string) (*models.Report, error) {
	var r models.Report
	if err := s.get(reportKeyPrefix+id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReports returns reports newest-first with the total matching count.
func (s *Badger) ListReports(_ context.Context, filter ReportFilter) ([]models.Report, int, error) {
	var all []models.Report
	err := s.scan(reportKeyPrefix, func(val []byte) error {
		var r models.Report
		if err := json.Unmarshal(val, &r); err != nil {
			return fmt.Errorf("unmarshal report: %w", err)
		}
		if filter.DisasterID != "" && r.DisasterID != filter.DisasterID {
			return nil
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			return nil
		}
		if filter.VerificationStatus != "" && r.VerificationStatus != filter.VerificationStatus {
			return nil
		}
		all = append(all, r)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	return paginate(all, filter.Limit, filter.Offset), total, nil
}

// UpdateVerificationStatus sets the verification status on a report.
func (s *Badger) UpdateVerificationStatus(ctx context.Context, id string, status models.VerificationStatus) error {
	r, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}
	r.VerificationStatus = status
	return s.put(reportKeyPrefix+id, r)
}

// PutResource stores or overwrites a resource document.
func (s *Badger) PutResource(_ context.Context, r *models.Resource) error {
	return s.put(resourceKeyPrefix+r.ID, r)
}

// NearbyResources scans all resources and returns those within radiusKm of center,
// nearest first. Badger has no spatial index; the resource collection is
// small enough that a prefix scan with haversine filtering is adequate.
func (s *Badger) NearbyResources(_ context.Context, center models.Coordinates, radiusKm float64, limit int) ([]models.Resource, error) {
	var nearby []models.Resource
	err := s.scan(resourceKeyPrefix, func(val []byte) error {
		var r models.Resource
		if err := json.Unmarshal(val, &r); err != nil {
			return fmt.Errorf("unmarshal resource: %w", err)
		}
		if dist := haversineKm(center, r.Location); dist <= radiusKm {
			r.DistanceKm = dist
			nearby = append(nearby, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// put marshals v and stores it under key.
func (s *Badger) put(key string, v any) error {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("put", time.Since(start)) }()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get loads key and unmarshals it into v.
func (s *Badger) get(key string, v any) error {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("get", time.Since(start)) }()

	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %q: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// scan iterates all values under prefix.
func (s *Badger) scan(prefix string, fn func(val []byte) error) error {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("scan", time.Since(start)) }()

	p := []byte(prefix)
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
