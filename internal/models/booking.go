package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ============================================================================
// BOOKING TYPES & STATUSES
// ============================================================================

// SeatStatus represents the seat allocation state of a booking
type SeatStatus string

const (
	SeatStatusConfirmed SeatStatus = "Confirmed"
	SeatStatusRAC       SeatStatus = "RAC"
	SeatStatusWaiting   SeatStatus = "Waiting"
	SeatStatusCancelled SeatStatus = "Cancelled"
)

// BookingStatus represents the overall booking lifecycle state
type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "Booked"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// PaymentStatus represents the payment state of a booking
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

// Gender represents a passenger's gender
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// BerthPreference represents a passenger's berth preference
type BerthPreference string

const (
	BerthLower        BerthPreference = "Lower"
	BerthMiddle       BerthPreference = "Middle"
	BerthUpper        BerthPreference = "Upper"
	BerthSideLower    BerthPreference = "Side Lower"
	BerthSideUpper    BerthPreference = "Side Upper"
	BerthNoPreference BerthPreference = "No Preference"
)

var validBerthPreferences = []BerthPreference{
	BerthLower, BerthMiddle, BerthUpper, BerthSideLower, BerthSideUpper, BerthNoPreference,
}

// ============================================================================
// PASSENGERS
// ============================================================================

// Passenger is one traveller on a booking
type Passenger struct {
	Name            string          `json:"name"`
	Age             int             `json:"age"`
	Gender          Gender          `json:"gender"`
	BerthPreference BerthPreference `json:"berth_preference"`
}

// Validate validates a single passenger entry
func (p *Passenger) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("passenger name is required")
	}
	if p.Age < 1 {
		return fmt.Errorf("passenger age must be at least 1")
	}
	switch p.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return fmt.Errorf("invalid passenger gender: %s", p.Gender)
	}
	if p.BerthPreference == "" {
		p.BerthPreference = BerthNoPreference
	}
	valid := false
	for _, bp := range validBerthPreferences {
		if p.BerthPreference == bp {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid berth preference: %s", p.BerthPreference)
	}
	return nil
}

// PassengerList stores a booking's passengers as JSONB
type PassengerList []Passenger

// Value implements the driver.Valuer interface. A nil list maps to SQL
// NULL rather than jsonb null.
func (l PassengerList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *PassengerList) Scan(value interface{}) error {
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

// ============================================================================
// BOOKING (bookings table)
// ============================================================================

// Booking represents a reservation (bookings table)
type Booking struct {
	ID                   string        `json:"id" db:"id"`
	PNR                  string        `json:"pnr" db:"pnr"`
	UserID               string        `json:"user_id" db:"user_id"`
	TrainID              string        `json:"train_id" db:"train_id"`
	JourneyDate          time.Time     `json:"journey_date" db:"journey_date"`
	SourceStationID      string        `json:"source_station_id" db:"source_station_id"`
	DestinationStationID string        `json:"destination_station_id" db:"destination_station_id"`
	Passengers           PassengerList `json:"passengers" db:"passengers"`
	ClassType            ClassType     `json:"class_type" db:"class_type"`
	TotalFare            float64       `json:"total_fare" db:"total_fare"`
	SeatStatus           SeatStatus    `json:"seat_status" db:"seat_status"`
	BookingStatus        BookingStatus `json:"booking_status" db:"booking_status"`
	PaymentStatus        PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentID            *string       `json:"payment_id,omitempty" db:"payment_id"`
	CancellationDate     *time.Time    `json:"cancellation_date,omitempty" db:"cancellation_date"`
	RefundAmount         float64       `json:"refund_amount" db:"refund_amount"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// IsCancelled reports whether the booking has reached its terminal state
func (b *Booking) IsCancelled() bool {
	return b.BookingStatus == BookingStatusCancelled
}

// PassengerCount returns the party size of the booking
func (b *Booking) PassengerCount() int {
	return len(b.Passengers)
}

// ============================================================================
// REQUESTS & RESPONSES
// ============================================================================

// CreateBookingRequest is the payload for booking a ticket
type CreateBookingRequest struct {
	TrainID              string      `json:"train_id" binding:"required"`
	JourneyDate          string      `json:"journey_date" binding:"required"`
	SourceStationID      string      `json:"source_station_id" binding:"required"`
	DestinationStationID string      `json:"destination_station_id" binding:"required"`
	Passengers           []Passenger `json:"passengers" binding:"required"`
	ClassType            ClassType   `json:"class_type" binding:"required"`
}

// Validate validates the create booking request
func (r *CreateBookingRequest) Validate() error {
	if !r.ClassType.IsValid() {
		return fmt.Errorf("invalid class type: %s", r.ClassType)
	}
	if len(r.Passengers) == 0 {
		return fmt.Errorf("at least one passenger is required")
	}
	for i := range r.Passengers {
		if err := r.Passengers[i].Validate(); err != nil {
			return fmt.Errorf("passenger %d: %w", i+1, err)
		}
	}
	if r.SourceStationID == r.DestinationStationID {
		return fmt.Errorf("source and destination stations must differ")
	}
	return nil
}

// CancellationResult is returned after a successful cancellation
type CancellationResult struct {
	BookingID        string    `json:"booking_id"`
	PNR              string    `json:"pnr"`
	RefundAmount     float64   `json:"refund_amount"`
	CancellationDate time.Time `json:"cancellation_date"`
	PromotedPNRs     []string  `json:"promoted_pnrs,omitempty"`
}

// BookingHistoryQuery holds booking history filters
type BookingHistoryQuery struct {
	UserID    string // empty for admin-wide queries
	Status    BookingStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// ClassAvailability is the derived seat-pool snapshot for one
// (train, journey date, class) tuple
type ClassAvailability struct {
	TrainID          string    `json:"train_id"`
	JourneyDate      time.Time `json:"journey_date"`
	ClassType        ClassType `json:"class_type"`
	TotalSeats       int       `json:"total_seats"`
	ConfirmedSeats   int       `json:"confirmed_seats"`
	AvailableSeats   int       `json:"available_seats"`
	RACCapacity      int       `json:"rac_capacity"`
	RACSeats         int       `json:"rac_seats"`
	WaitlistCapacity int       `json:"waitlist_capacity"`
	WaitingSeats     int       `json:"waiting_seats"`
}
