// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Vagishmaurya/disaster-management/internal/models"
	"github.com/Vagishmaurya/disaster-management/internal/validation"
)

// maxBodyBytes caps request bodies. Disaster descriptions are free text but
// nothing legitimate approaches a megabyte.
const maxBodyBytes = 1 << 20

// CreateDisasterRequest is the body for POST /api/disasters.
type CreateDisasterRequest struct {
	Title        string              `json:"title" validate:"required,min=3,max=200"`
	LocationName string              `json:"location_name" validate:"omitempty,max=200"`
	Location     *models.Coordinates `json:"location" validate:"omitempty"`
	Description  string              `json:"description" validate:"required,min=3,max=5000"`
	Tags         []string            `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
	OwnerID      string              `json:"owner_id" validate:"required,min=1,max=100"`
}

// UpdateDisasterRequest is the body for PUT /api/disasters/{id}. Nil fields
// are left untouched; present fields replace the stored value.
type UpdateDisasterRequest struct {
	Title        *string             `json:"title" validate:"omitempty,min=3,max=200"`
	LocationName *string             `json:"location_name" validate:"omitempty,max=200"`
	Location     *models.Coordinates `json:"location" validate:"omitempty"`
	Description  *string             `json:"description" validate:"omitempty,min=3,max=5000"`
	Tags         *[]string           `json:"tags" validate:"omitempty,dive,min=1,max=50"`
	UserID       string              `json:"user_id" validate:"required,min=1,max=100"`
}

// CreateReportRequest is the body for POST /api/reports.
type CreateReportRequest struct {
	DisasterID string `json:"disaster_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required,min=1,max=100"`
	Content    string `json:"content" validate:"required,min=1,max=5000"`
	ImageURL   string `json:"image_url" validate:"omitempty,url,max=2000"`
}

// GeocodeRequest is the body for POST /api/geocode.
type GeocodeRequest struct {
	LocationName string `json:"location_name" validate:"required,min=1,max=200"`
}

// ExtractLocationRequest is the body for POST /api/extract-location.
type ExtractLocationRequest struct {
	Description string `json:"description" validate:"required,min=1,max=5000"`
}

// VerifyImageRequest is the body for POST /api/disasters/{id}/verify-image.
// ReportID is optional; when present the report's verification status is
// updated with the outcome.
type VerifyImageRequest struct {
	ImageURL string `json:"image_url" validate:"required,url,max=2000"`
	ReportID string `json:"report_id" validate:"omitempty"`
}

// decodeJSON reads and unmarshals a request body, rejecting unknown size
// overflows and trailing garbage.
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return errors.New("request body too large")
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// decodeAndValidate decodes the body into v and runs struct validation,
// writing the error response itself on failure. Returns true when the
// request is usable.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeJSON(r, v); err != nil {
		rw.BadRequest(err.Error())
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	if c, ok := coordinatesOf(v); ok && c != nil {
		if err := validateCoordinates(*c); err != nil {
			rw.ValidationError(err.Error(), nil)
			return false
		}
	}
	return true
}

// coordinatesOf pulls the optional coordinate field out of the request types
// that carry one.
func coordinatesOf(v interface{}) (*models.Coordinates, bool) {
	switch req := v.(type) {
	case *CreateDisasterRequest:
		return req.Location, true
	case *UpdateDisasterRequest:
		return req.Location, true
	default:
		return nil, false
	}
}

// validateCoordinates bounds-checks a WGS84 point.
func validateCoordinates(c models.Coordinates) error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("lat must be between -90 and 90, got %v", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("lng must be between -180 and 180, got %v", c.Lng)
	}
	return nil
}
