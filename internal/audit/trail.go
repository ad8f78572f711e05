// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

// Package audit computes field-level diffs for disaster mutations and
// maintains the append-only audit trail on each entity.
//
// Entries are immutable once appended. The trail is monotonically growing:
// never reordered, never truncated. Deletion is modeled as a delete entry on
// the entity rather than physical removal, so a deleted disaster remains
// queryable with its full history.
package audit

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/Vagishmaurya/disaster-management/internal/models"
)

// Tracked fields for diffing. Coordinates are compared through their JSON
// form; tags are order-insensitive.
const (
	FieldTitle        = "title"
	FieldLocationName = "location_name"
	FieldDescription  = "description"
	FieldTags         = "tags"
	FieldLocation     = "location"
)

// ErrMalformedTrail indicates a persisted audit trail that violates the
// trail invariants. This is a fatal (programming or infrastructure) error:
// the operation that encountered it must abort without a partial write.
var ErrMalformedTrail = errors.New("audit: malformed audit trail")

// Diff compares two states of a disaster and returns an update entry whose
// Changes map contains exactly the tracked fields whose canonical serialized
// forms differ. Unchanged fields are omitted entirely. Tags compare
// order-insensitively: a reordered tag list is not a change.
func Diff(oldState, newState *models.Disaster, actor string) models.AuditEntry {
	changes := make(map[string]models.FieldChange)

	if oldState.Title != newState.Title {
		changes[FieldTitle] = models.FieldChange{From: oldState.Title, To: newState.Title}
	}
	if oldState.LocationName != newState.LocationName {
		changes[FieldLocationName] = models.FieldChange{From: oldState.LocationName, To: newState.LocationName}
	}
	if oldState.Description != newState.Description {
		changes[FieldDescription] = models.FieldChange{From: oldState.Description, To: newState.Description}
	}
	if canonicalTags(oldState.Tags) != canonicalTags(newState.Tags) {
		changes[FieldTags] = models.FieldChange{From: oldState.Tags, To: newState.Tags}
	}
	if canonicalJSON(oldState.Location) != canonicalJSON(newState.Location) {
		changes[FieldLocation] = models.FieldChange{From: oldState.Location, To: newState.Location}
	}

	entry := models.AuditEntry{
		Action:    models.AuditActionUpdate,
		UserID:    actor,
		Timestamp: time.Now().UTC(),
	}
	if len(changes) > 0 {
		entry.Changes = changes
	}
	return entry
}

// NewCreateEntry returns the initial audit entry for a freshly created
// disaster.
func NewCreateEntry(actor string) models.AuditEntry {
	return models.AuditEntry{
		Action:    models.AuditActionCreate,
		UserID:    actor,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeleteEntry returns the soft-delete entry appended when a disaster is
// deleted.
func NewDeleteEntry(actor, reason string) models.AuditEntry {
	return models.AuditEntry{
		Action:    models.AuditActionDelete,
		UserID:    actor,
		Timestamp: time.Now().UTC(),
		Reason:    reason,
	}
}

// Append returns a new trail consisting of the prior entries plus entry.
// The prior slice is never modified: a fresh backing array is allocated so
// callers holding the old trail keep an unchanged view.
func Append(trail []models.AuditEntry, entry models.AuditEntry) []models.AuditEntry {
	next := make([]models.AuditEntry, len(trail), len(trail)+1)
	copy(next, trail)
	return append(next, entry)
}

// Validate checks trail invariants on a persisted trail: the first entry
// must be a create, every entry needs an action and actor, and timestamps
// must not regress. A violation means the persisted structure was corrupted.
func Validate(trail []models.AuditEntry) error {
	if len(trail) == 0 {
		return fmt.Errorf("%w: empty trail", ErrMalformedTrail)
	}
	if trail[0].Action != models.AuditActionCreate {
		return fmt.Errorf("%w: first entry is %q, want create", ErrMalformedTrail, trail[0].Action)
	}

	var prev time.Time
	for i, entry := range trail {
		switch entry.Action {
		case models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionDelete:
		default:
			return fmt.Errorf("%w: entry %d has unknown action %q", ErrMalformedTrail, i, entry.Action)
		}
		if entry.UserID == "" {
			return fmt.Errorf("%w: entry %d has no actor", ErrMalformedTrail, i)
		}
		if entry.Timestamp.Before(prev) {
			return fmt.Errorf("%w: entry %d timestamp precedes entry %d", ErrMalformedTrail, i, i-1)
		}
		prev = entry.Timestamp
	}
	return nil
}

// canonicalTags serializes a tag set order-insensitively: a sorted copy is
// marshaled so ["a","b"] and ["b","a"] compare equal. nil and empty compare
// equal as well.
func canonicalTags(tags []string) string {
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return canonicalJSON(sorted)
}

// canonicalJSON is the canonical serialized form used for field comparison.
func canonicalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Marshal of the model types cannot fail; fall back to a form that
		// always compares unequal so a real change is never masked.
		return fmt.Sprintf("!err:%v", err)
	}
	return string(data)
}
