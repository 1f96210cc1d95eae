package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var pincodeRegex = regexp.MustCompile(`^[0-9]{6}$`)

// Station represents a railway station (stations table)
type Station struct {
	ID          string    `json:"id" db:"id"`
	StationCode string    `json:"station_code" db:"station_code"`
	StationName string    `json:"station_name" db:"station_name"`
	City        string    `json:"city" db:"city"`
	State       string    `json:"state" db:"state"`
	Pincode     string    `json:"pincode" db:"pincode"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateStationRequest is the payload for creating a station
type CreateStationRequest struct {
	StationCode string `json:"station_code" binding:"required"`
	StationName string `json:"station_name" binding:"required"`
	City        string `json:"city" binding:"required"`
	State       string `json:"state" binding:"required"`
	Pincode     string `json:"pincode" binding:"required"`
}

// Validate validates the create station request
func (r *CreateStationRequest) Validate() error {
	r.StationCode = strings.ToUpper(strings.TrimSpace(r.StationCode))
	if len(r.StationCode) < 2 || len(r.StationCode) > 5 {
		return fmt.Errorf("station code must be 2-5 characters")
	}
	if !pincodeRegex.MatchString(r.Pincode) {
		return fmt.Errorf("pincode must be a 6-digit number")
	}
	return nil
}

// UpdateStationRequest is the payload for updating a station.
// The station code is immutable once created; only descriptive fields change.
type UpdateStationRequest struct {
	StationName *string `json:"station_name"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Pincode     *string `json:"pincode"`
}

// Validate validates the update station request
func (r *UpdateStationRequest) Validate() error {
	if r.Pincode != nil && !pincodeRegex.MatchString(*r.Pincode) {
		return fmt.Errorf("pincode must be a 6-digit number")
	}
	return nil
}
