package services

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/railsewa/railway-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// AvailabilityService is the seat-accounting model for one
// (train, journey date, class) tuple. Pool counts are always derived from
// the persisted booking set inside the caller's tuple-locked transaction,
// never from a separately maintained counter, so concurrent admissions
// cannot oversell a class.
//
// Admission is per party: a booking's passengers are admitted together into
// Confirmed, RAC or Waiting, or the whole request is rejected. Passengers
// on one booking travel together and are never split across pools.
type AvailabilityService struct {
	bookingRepo *database.BookingRepository
	racRatio    float64
	waitRatio   float64
	logger      *logrus.Logger
}

// NewAvailabilityService creates a new AvailabilityService. The RAC and
// waiting-list pool sizes are fractions of a class's configured seats.
func NewAvailabilityService(bookingRepo *database.BookingRepository, racRatio, waitRatio float64, logger *logrus.Logger) *AvailabilityService {
	return &AvailabilityService{
		bookingRepo: bookingRepo,
		racRatio:    racRatio,
		waitRatio:   waitRatio,
		logger:      logger,
	}
}

// poolCapacity converts a ratio of total seats into a pool size, at least
// one seat whenever the ratio is non-zero
func poolCapacity(totalSeats int, ratio float64) int {
	if ratio <= 0 {
		return 0
	}
	capacity := int(float64(totalSeats) * ratio)
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// Snapshot derives the current pool state for the tuple from the persisted
// booking set. Must run inside the caller's transaction; when the caller
// intends to admit or promote, that transaction must hold the tuple lock.
func (s *AvailabilityService) Snapshot(tx *sqlx.Tx, trainID string, journeyDate time.Time, class models.FareClass) (*models.ClassAvailability, error) {
	counts, err := s.bookingRepo.SeatCounts(tx, trainID, journeyDate, class.ClassType)
	if err != nil {
		return nil, err
	}

	available := class.TotalSeats - counts.Confirmed
	if available < 0 {
		available = 0
	}

	return &models.ClassAvailability{
		TrainID:          trainID,
		JourneyDate:      journeyDate,
		ClassType:        class.ClassType,
		TotalSeats:       class.TotalSeats,
		ConfirmedSeats:   counts.Confirmed,
		AvailableSeats:   available,
		RACCapacity:      poolCapacity(class.TotalSeats, s.racRatio),
		RACSeats:         counts.RAC,
		WaitlistCapacity: poolCapacity(class.TotalSeats, s.waitRatio),
		WaitingSeats:     counts.Waiting,
	}, nil
}

// Admit decides the seat status for a new party of the given size,
// evaluated atomically against the tuple's current pool state. Order:
// confirmed seats, then RAC, then the waiting list; a party that fits
// nowhere is rejected with a CapacityError carrying the snapshot.
func (s *AvailabilityService) Admit(tx *sqlx.Tx, trainID string, journeyDate time.Time, class models.FareClass, partySize int) (models.SeatStatus, *models.ClassAvailability, error) {
	avail, err := s.Snapshot(tx, trainID, journeyDate, class)
	if err != nil {
		return "", nil, err
	}

	switch {
	case avail.ConfirmedSeats+partySize <= avail.TotalSeats:
		return models.SeatStatusConfirmed, avail, nil
	case avail.RACSeats+partySize <= avail.RACCapacity:
		return models.SeatStatusRAC, avail, nil
	case avail.WaitingSeats+partySize <= avail.WaitlistCapacity:
		return models.SeatStatusWaiting, avail, nil
	default:
		return "", avail, &CapacityError{Requested: partySize, Availability: *avail}
	}
}

// PromoteAfterRelease re-runs the promotion rule for the tuple after a
// cancellation freed capacity. RAC bookings are promoted to Confirmed
// first, then waiting-list bookings into the RAC vacancies, both in
// (created_at, id) order. Promotion is whole-party: a booking whose party
// does not fit the remaining capacity is skipped, never split, and the
// walk continues down the queue. Returns the PNRs promoted to each status.
//
// Must run inside the same tuple-locked transaction as the cancellation so
// the freed seats cannot be claimed twice.
func (s *AvailabilityService) PromoteAfterRelease(tx *sqlx.Tx, trainID string, journeyDate time.Time, class models.FareClass) ([]string, error) {
	avail, err := s.Snapshot(tx, trainID, journeyDate, class)
	if err != nil {
		return nil, err
	}

	var promoted []string

	// RAC -> Confirmed
	confirmed := avail.ConfirmedSeats
	racUsed := avail.RACSeats
	if confirmed < avail.TotalSeats {
		racBookings, err := s.bookingRepo.ActiveBySeatStatus(tx, trainID, journeyDate, class.ClassType, models.SeatStatusRAC)
		if err != nil {
			return nil, err
		}
		for _, b := range racBookings {
			party := b.PassengerCount()
			if confirmed+party > avail.TotalSeats {
				continue
			}
			ok, err := s.bookingRepo.PromoteSeatStatus(tx, b.ID, models.SeatStatusRAC, models.SeatStatusConfirmed)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			confirmed += party
			racUsed -= party
			promoted = append(promoted, b.PNR)
			s.logger.WithFields(logrus.Fields{
				"pnr":        b.PNR,
				"train_id":   trainID,
				"class_type": class.ClassType,
				"party_size": party,
			}).Info("Promoted RAC booking to Confirmed")
		}
	}

	// Waiting -> RAC
	racCapacity := poolCapacity(class.TotalSeats, s.racRatio)
	if racUsed < racCapacity {
		waitingBookings, err := s.bookingRepo.ActiveBySeatStatus(tx, trainID, journeyDate, class.ClassType, models.SeatStatusWaiting)
		if err != nil {
			return nil, err
		}
		for _, b := range waitingBookings {
			party := b.PassengerCount()
			if racUsed+party > racCapacity {
				continue
			}
			ok, err := s.bookingRepo.PromoteSeatStatus(tx, b.ID, models.SeatStatusWaiting, models.SeatStatusRAC)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			racUsed += party
			promoted = append(promoted, b.PNR)
			s.logger.WithFields(logrus.Fields{
				"pnr":        b.PNR,
				"train_id":   trainID,
				"class_type": class.ClassType,
				"party_size": party,
			}).Info("Promoted Waiting booking to RAC")
		}
	}

	return promoted, nil
}
