package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ClassType represents a reservation fare class
type ClassType string

const (
	ClassSleeper   ClassType = "SL"
	ClassThirdAC   ClassType = "3A"
	ClassSecondAC  ClassType = "2A"
	ClassFirstAC   ClassType = "1A"
	ClassChairCar  ClassType = "CC"
	ClassExecutive ClassType = "EC"
)

// ValidClassTypes lists every supported fare class
var ValidClassTypes = []ClassType{
	ClassSleeper, ClassThirdAC, ClassSecondAC, ClassFirstAC, ClassChairCar, ClassExecutive,
}

// IsValid reports whether the class type is one of the supported classes
func (c ClassType) IsValid() bool {
	for _, v := range ValidClassTypes {
		if c == v {
			return true
		}
	}
	return false
}

// ValidWeekdays lists the accepted days of operation
var ValidWeekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// FareClass describes one bookable class on a train
type FareClass struct {
	ClassType  ClassType `json:"class_type"`
	TotalSeats int       `json:"total_seats"`
	FarePerKm  float64   `json:"fare_per_km"`
}

// FareClassList stores a train's classes as JSONB
type FareClassList []FareClass

// Value implements the driver.Valuer interface. A nil list maps to SQL
// NULL, not jsonb null, so COALESCE-style partial updates can skip it.
func (l FareClassList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *FareClassList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, l)
}

// Find returns the fare class with the given class type, if present
func (l FareClassList) Find(classType ClassType) (FareClass, bool) {
	for _, fc := range l {
		if fc.ClassType == classType {
			return fc, true
		}
	}
	return FareClass{}, false
}

// Train represents a train (trains table). Seat consumption is never stored
// here; it is derived from the bookings table per (train, date, class).
type Train struct {
	ID                   string        `json:"id" db:"id"`
	TrainNumber          string        `json:"train_number" db:"train_number"`
	TrainName            string        `json:"train_name" db:"train_name"`
	SourceStationID      string        `json:"source_station_id" db:"source_station_id"`
	DestinationStationID string        `json:"destination_station_id" db:"destination_station_id"`
	DepartureTime        string        `json:"departure_time" db:"departure_time"`
	ArrivalTime          string        `json:"arrival_time" db:"arrival_time"`
	Duration             string        `json:"duration" db:"duration"`
	DaysOfOperation      StringArray   `json:"days_of_operation" db:"days_of_operation"`
	Classes              FareClassList `json:"classes" db:"classes"`
	IsActive             bool          `json:"is_active" db:"is_active"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// OperatesOn reports whether the train runs on the weekday of the given date
func (t *Train) OperatesOn(date time.Time) bool {
	return t.DaysOfOperation.Contains(date.Weekday().String())
}

// CreateTrainRequest is the payload for creating a train
type CreateTrainRequest struct {
	TrainNumber          string      `json:"train_number" binding:"required"`
	TrainName            string      `json:"train_name" binding:"required"`
	SourceStationID      string      `json:"source_station_id" binding:"required"`
	DestinationStationID string      `json:"destination_station_id" binding:"required"`
	DepartureTime        string      `json:"departure_time" binding:"required"`
	ArrivalTime          string      `json:"arrival_time" binding:"required"`
	Duration             string      `json:"duration" binding:"required"`
	DaysOfOperation      []string    `json:"days_of_operation" binding:"required"`
	Classes              []FareClass `json:"classes" binding:"required"`
}

// Validate validates the create train request
func (r *CreateTrainRequest) Validate() error {
	if r.SourceStationID == r.DestinationStationID {
		return fmt.Errorf("source and destination stations must differ")
	}
	if len(r.DaysOfOperation) == 0 {
		return fmt.Errorf("at least one day of operation is required")
	}
	for _, day := range r.DaysOfOperation {
		if !containsString(ValidWeekdays, day) {
			return fmt.Errorf("invalid day of operation: %s", day)
		}
	}
	if len(r.Classes) == 0 {
		return fmt.Errorf("at least one fare class is required")
	}
	seen := make(map[ClassType]bool)
	for _, fc := range r.Classes {
		if !fc.ClassType.IsValid() {
			return fmt.Errorf("invalid class type: %s", fc.ClassType)
		}
		if seen[fc.ClassType] {
			return fmt.Errorf("duplicate class type: %s", fc.ClassType)
		}
		seen[fc.ClassType] = true
		if fc.TotalSeats <= 0 {
			return fmt.Errorf("total seats for class %s must be positive", fc.ClassType)
		}
		if fc.FarePerKm < 0 {
			return fmt.Errorf("fare per km for class %s must not be negative", fc.ClassType)
		}
	}
	return nil
}

// UpdateTrainRequest is the payload for updating a train
type UpdateTrainRequest struct {
	TrainName       *string     `json:"train_name"`
	DepartureTime   *string     `json:"departure_time"`
	ArrivalTime     *string     `json:"arrival_time"`
	Duration        *string     `json:"duration"`
	DaysOfOperation []string    `json:"days_of_operation"`
	Classes         []FareClass `json:"classes"`
}

// Validate validates the update train request
func (r *UpdateTrainRequest) Validate() error {
	for _, day := range r.DaysOfOperation {
		if !containsString(ValidWeekdays, day) {
			return fmt.Errorf("invalid day of operation: %s", day)
		}
	}
	seen := make(map[ClassType]bool)
	for _, fc := range r.Classes {
		if !fc.ClassType.IsValid() {
			return fmt.Errorf("invalid class type: %s", fc.ClassType)
		}
		if seen[fc.ClassType] {
			return fmt.Errorf("duplicate class type: %s", fc.ClassType)
		}
		seen[fc.ClassType] = true
		if fc.TotalSeats <= 0 {
			return fmt.Errorf("total seats for class %s must be positive", fc.ClassType)
		}
	}
	return nil
}

// TrainSearchQuery holds train search filters
type TrainSearchQuery struct {
	SourceStationID      string
	DestinationStationID string
	Date                 time.Time
	ClassType            ClassType
	Page                 int
	Limit                int
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
