package services

import (
	"fmt"
	"time"

	"github.com/railsewa/railway-reservation-backend/internal/models"
)

// Classified errors surfaced by the booking engine. Handlers map these to
// transport-level statuses; the engine never leaks raw storage errors for
// expected outcomes.
var (
	ErrTrainNotFound     = fmt.Errorf("train not found")
	ErrStationNotFound   = fmt.Errorf("station not found")
	ErrBookingNotFound   = fmt.Errorf("booking not found")
	ErrInvalidClass      = fmt.Errorf("train does not offer the requested class")
	ErrInvalidJourneyDay = fmt.Errorf("train does not operate on the requested day")
	ErrNotAuthorized     = fmt.Errorf("not authorized for this booking")
	ErrAlreadyCancelled  = fmt.Errorf("booking is already cancelled")
	ErrConflict          = fmt.Errorf("transient conflict, retry the request")
)

// CapacityError is returned when the availability model rejects an
// admission. It carries the pool snapshot so callers can react.
type CapacityError struct {
	Requested    int
	Availability models.ClassAvailability
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf(
		"no capacity for %d passenger(s) in class %s: %d/%d confirmed, RAC %d/%d, waiting %d/%d",
		e.Requested, e.Availability.ClassType,
		e.Availability.ConfirmedSeats, e.Availability.TotalSeats,
		e.Availability.RACSeats, e.Availability.RACCapacity,
		e.Availability.WaitingSeats, e.Availability.WaitlistCapacity,
	)
}

// CancellationWindowError is returned when a cancellation arrives too close
// to departure. It carries the cutoff so callers can report it.
type CancellationWindowError struct {
	Cutoff      time.Duration
	JourneyDate time.Time
}

func (e *CancellationWindowError) Error() string {
	return fmt.Sprintf(
		"cannot cancel within %s of departure (journey on %s)",
		e.Cutoff, e.JourneyDate.Format("2006-01-02"),
	)
}
