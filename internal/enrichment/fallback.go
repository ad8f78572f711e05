// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package enrichment

import (
	"fmt"
	"strings"
	"time"

	"github.com/Vagishmaurya/disaster-management/internal/models"
)

// Contextual fallbacks generated from the disaster's own fields when the
// upstream provider is unavailable. They are deterministic for a given
// disaster so a degraded system behaves predictably, and they are never
// written to the cache.

func fallbackSocialPosts(d *models.Disaster, now time.Time) []models.SocialPost {
	place := d.LocationName
	if place == "" {
		place = "the affected area"
	}
	tag := primaryTag(d.Tags)

	return []models.SocialPost{
		{
			User:       "local_reporter",
			Content:    fmt.Sprintf("#%s Situation developing in %s. Emergency services are responding. %s", tag, place, d.Title),
			Timestamp:  now.Add(-12 * time.Minute),
			Priority:   true,
			Platform:   "bluesky",
			Engagement: 240,
		},
		{
			User:       "community_watch",
			Content:    fmt.Sprintf("Residents near %s: follow official evacuation guidance and check on neighbors. #%s #disaster", place, tag),
			Timestamp:  now.Add(-27 * time.Minute),
			Priority:   false,
			Platform:   "bluesky",
			Engagement: 87,
		},
		{
			User:       "relief_volunteer",
			Content:    fmt.Sprintf("Volunteer coordination underway for %s. Supplies being staged nearby.", d.Title),
			Timestamp:  now.Add(-45 * time.Minute),
			Priority:   false,
			Platform:   "mastodon",
			Engagement: 31,
		},
	}
}

func fallbackOfficialUpdates(d *models.Disaster, now time.Time) []models.OfficialUpdate {
	place := d.LocationName
	if place == "" {
		place = "the affected region"
	}

	return []models.OfficialUpdate{
		{
			Source:    "FEMA",
			Title:     fmt.Sprintf("Response activated: %s", d.Title),
			Content:   fmt.Sprintf("Federal assistance has been mobilized for %s. Affected residents should register for aid through official channels.", place),
			Timestamp: now.Add(-1 * time.Hour),
			Priority:  "high",
		},
		{
			Source:    "Red Cross",
			Title:     fmt.Sprintf("Shelter operations in %s", place),
			Content:   "Emergency shelters are open. Capacity updates are posted hourly; bring identification and essential medications.",
			Timestamp: now.Add(-2 * time.Hour),
			Priority:  "medium",
		},
	}
}

// fallbackResources synthesizes nearby relief resources around a disaster's
// coordinates when the geospatial store has nothing in range.
func fallbackResources(d *models.Disaster, center models.Coordinates, now time.Time) []models.Resource {
	place := d.LocationName
	if place == "" {
		place = "Staging Area"
	}

	return []models.Resource{
		{
			ID:           "fallback-shelter-" + d.ID,
			DisasterID:   d.ID,
			Name:         "Emergency Shelter - " + place,
			LocationName: place,
			Location:     models.Coordinates{Lat: center.Lat + 0.01, Lng: center.Lng + 0.01},
			Type:         models.ResourceShelter,
			Capacity:     200,
			Status:       "available",
			CreatedAt:    now,
		},
		{
			ID:           "fallback-medical-" + d.ID,
			DisasterID:   d.ID,
			Name:         "Mobile Medical Unit - " + place,
			LocationName: place,
			Location:     models.Coordinates{Lat: center.Lat - 0.008, Lng: center.Lng + 0.005},
			Type:         models.ResourceMedical,
			Capacity:     50,
			Status:       "available",
			CreatedAt:    now,
		},
		{
			ID:           "fallback-food-" + d.ID,
			DisasterID:   d.ID,
			Name:         "Food Distribution Point - " + place,
			LocationName: place,
			Location:     models.Coordinates{Lat: center.Lat + 0.005, Lng: center.Lng - 0.012},
			Type:         models.ResourceFood,
			Capacity:     500,
			Status:       "available",
			CreatedAt:    now,
		},
	}
}

func primaryTag(tags []string) string {
	for _, t := range tags {
		if t != "" {
			return strings.ReplaceAll(t, " ", "")
		}
	}
	return "disaster"
}
