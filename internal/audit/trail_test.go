// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package audit

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Vagishmaurya/disaster-management/internal/models"
)

func baseDisaster() *models.Disaster {
	return &models.Disaster{
		ID:           "d1",
		Title:        "Flood in Miami",
		LocationName: "Miami, FL",
		Location:     &models.Coordinates{Lat: 25.7617, Lng: -80.1918},
		Description:  "Severe flooding downtown",
		Tags:         []string{"flood"},
		OwnerID:      "owner1",
	}
}

func TestDiffIncludesOnlyChangedFields(t *testing.T) {
	oldState := baseDisaster()
	newState := baseDisaster()
	newState.Title = "Major flood in Miami"
	newState.Tags = []string{"flood", "urgent"}

	entry := Diff(oldState, newState, "actor1")

	if entry.Action != models.AuditActionUpdate {
		t.Errorf("expected update action, got %s", entry.Action)
	}
	if entry.UserID != "actor1" {
		t.Errorf("expected actor1, got %s", entry.UserID)
	}
	if len(entry.Changes) != 2 {
		t.Fatalf("expected 2 changes, got %d: %v", len(entry.Changes), entry.Changes)
	}

	title, ok := entry.Changes[FieldTitle]
	if !ok {
		t.Fatal("expected title change")
	}
	if title.From != "Flood in Miami" || title.To != "Major flood in Miami" {
		t.Errorf("unexpected title change: %+v", title)
	}
	if _, ok := entry.Changes[FieldTags]; !ok {
		t.Error("expected tags change")
	}
	if _, ok := entry.Changes[FieldDescription]; ok {
		t.Error("description did not change, must be omitted")
	}
}

func TestDiffReorderedTagsAreNotAChange(t *testing.T) {
	oldState := baseDisaster()
	oldState.Tags = []string{"flood", "urgent"}
	newState := baseDisaster()
	newState.Tags = []string{"urgent", "flood"}

	entry := Diff(oldState, newState, "actor1")

	if len(entry.Changes) != 0 {
		t.Errorf("reordered tags must not produce a change, got %v", entry.Changes)
	}
}

func TestDiffNilAndEmptyTagsAreEqual(t *testing.T) {
	oldState := baseDisaster()
	oldState.Tags = nil
	newState := baseDisaster()
	newState.Tags = []string{}

	entry := Diff(oldState, newState, "actor1")
	if _, ok := entry.Changes[FieldTags]; ok {
		t.Error("nil and empty tag lists must compare equal")
	}
}

func TestDiffLocationChange(t *testing.T) {
	oldState := baseDisaster()
	newState := baseDisaster()
	newState.LocationName = "Boston, MA"
	newState.Location = &models.Coordinates{Lat: 42.3601, Lng: -71.0589}

	entry := Diff(oldState, newState, "actor1")

	if _, ok := entry.Changes[FieldLocationName]; !ok {
		t.Error("expected location_name change")
	}
	if _, ok := entry.Changes[FieldLocation]; !ok {
		t.Error("expected location change")
	}
}

func TestDiffIdenticalStatesHasNoChanges(t *testing.T) {
	oldState := baseDisaster()
	newState := baseDisaster()

	entry := Diff(oldState, newState, "actor1")
	if entry.Changes != nil {
		t.Errorf("expected no changes map for identical states, got %v", entry.Changes)
	}
}

func TestAppendPreservesPriorEntries(t *testing.T) {
	trail := []models.AuditEntry{NewCreateEntry("owner1")}
	original := trail[0]

	for i := 0; i < 5; i++ {
		trail = Append(trail, models.AuditEntry{
			Action:    models.AuditActionUpdate,
			UserID:    "actor1",
			Timestamp: time.Now().UTC(),
		})
	}

	if len(trail) != 6 {
		t.Fatalf("expected 6 entries after 5 appends, got %d", len(trail))
	}
	if !reflect.DeepEqual(trail[0], original) {
		t.Error("prior entry was mutated by Append")
	}
}

func TestAppendDoesNotAliasPriorTrail(t *testing.T) {
	trail := []models.AuditEntry{NewCreateEntry("owner1")}

	a := Append(trail, NewDeleteEntry("owner1", "cleanup"))
	b := Append(trail, models.AuditEntry{
		Action:    models.AuditActionUpdate,
		UserID:    "actor2",
		Timestamp: time.Now().UTC(),
	})

	// Two appends from the same base must not clobber each other.
	if a[1].Action != models.AuditActionDelete {
		t.Errorf("expected delete in first branch, got %s", a[1].Action)
	}
	if b[1].Action != models.AuditActionUpdate {
		t.Errorf("expected update in second branch, got %s", b[1].Action)
	}
}

func TestSoftDeleteSemantics(t *testing.T) {
	d := baseDisaster()
	d.AuditTrail = []models.AuditEntry{NewCreateEntry("owner1")}

	if d.Deleted() {
		t.Error("freshly created disaster must not be deleted")
	}

	d.AuditTrail = Append(d.AuditTrail, NewDeleteEntry("owner1", "user requested deletion"))

	if !d.Deleted() {
		t.Error("disaster with trailing delete entry must report deleted")
	}
	if len(d.AuditTrail) != 2 {
		t.Errorf("soft delete must append, not remove: got %d entries", len(d.AuditTrail))
	}
}

func TestValidate(t *testing.T) {
	now := time.Now().UTC()

	valid := []models.AuditEntry{
		{Action: models.AuditActionCreate, UserID: "u1", Timestamp: now},
		{Action: models.AuditActionUpdate, UserID: "u2", Timestamp: now.Add(time.Second)},
	}
	if err := Validate(valid); err != nil {
		t.Errorf("valid trail rejected: %v", err)
	}

	tests := []struct {
		name  string
		trail []models.AuditEntry
	}{
		{"empty", nil},
		{"first not create", []models.AuditEntry{
			{Action: models.AuditActionUpdate, UserID: "u1", Timestamp: now},
		}},
		{"unknown action", []models.AuditEntry{
			{Action: models.AuditActionCreate, UserID: "u1", Timestamp: now},
			{Action: "merge", UserID: "u1", Timestamp: now},
		}},
		{"missing actor", []models.AuditEntry{
			{Action: models.AuditActionCreate, Timestamp: now},
		}},
		{"timestamp regression", []models.AuditEntry{
			{Action: models.AuditActionCreate, UserID: "u1", Timestamp: now},
			{Action: models.AuditActionUpdate, UserID: "u1", Timestamp: now.Add(-time.Minute)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.trail)
			if !errors.Is(err, ErrMalformedTrail) {
				t.Errorf("expected ErrMalformedTrail, got %v", err)
			}
		})
	}
}
