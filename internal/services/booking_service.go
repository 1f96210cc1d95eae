package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/railsewa/railway-reservation-backend/internal/config"
	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/railsewa/railway-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Subject is the authenticated caller of a booking operation
type Subject struct {
	UserID string
	Role   models.Role
}

// IsAdmin reports whether the subject holds the admin role
func (s Subject) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// Producer publishes booking lifecycle events. Publishing is best-effort:
// a failed publish never fails the booking operation.
type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// BookingEvent is the payload published on booking lifecycle transitions
type BookingEvent struct {
	Type         string    `json:"type"`
	PNR          string    `json:"pnr"`
	BookingID    string    `json:"booking_id"`
	UserID       string    `json:"user_id"`
	TrainID      string    `json:"train_id"`
	JourneyDate  time.Time `json:"journey_date"`
	ClassType    string    `json:"class_type"`
	SeatStatus   string    `json:"seat_status"`
	TotalFare    float64   `json:"total_fare"`
	RefundAmount float64   `json:"refund_amount,omitempty"`
}

// BookingService is the booking lifecycle engine: admission, PNR issuance,
// cancellation with refunds, and status promotion. Both write paths run in
// a single transaction serialized per (train, journey date, class) tuple.
type BookingService struct {
	bookingRepo  *database.BookingRepository
	trainRepo    *database.TrainRepository
	availability *AvailabilityService
	fareCalc     *FareCalculator
	producer     Producer
	policy       config.BookingConfig
	logger       *logrus.Logger
	now          func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo *database.BookingRepository,
	trainRepo *database.TrainRepository,
	availability *AvailabilityService,
	fareCalc *FareCalculator,
	producer Producer,
	policy config.BookingConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		trainRepo:    trainRepo,
		availability: availability,
		fareCalc:     fareCalc,
		producer:     producer,
		policy:       policy,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock replaces the service clock. Used by tests and by callers that
// need a deterministic notion of now.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// CreateBooking admits a new reservation for the given party.
//
// The admission decision, PNR issuance and insert happen inside one
// transaction holding the tuple's advisory lock, so two concurrent
// requests for the last seat cannot both be confirmed.
func (s *BookingService) CreateBooking(ctx context.Context, subject Subject, req *models.CreateBookingRequest) (*models.Booking, error) {
	journeyDate, err := time.Parse("2006-01-02", req.JourneyDate)
	if err != nil {
		return nil, fmt.Errorf("invalid journey date %q: %w", req.JourneyDate, err)
	}

	// 1. Resolve the catalog entry
	train, err := s.trainRepo.GetByID(req.TrainID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrainNotFound
		}
		return nil, fmt.Errorf("failed to load train: %w", err)
	}
	if !train.IsActive {
		return nil, ErrTrainNotFound
	}

	fareClass, ok := train.Classes.Find(req.ClassType)
	if !ok {
		return nil, ErrInvalidClass
	}

	if !train.OperatesOn(journeyDate) {
		return nil, ErrInvalidJourneyDay
	}

	// 2. Compute the fare before touching booking state
	totalFare := s.fareCalc.TotalFare(
		req.SourceStationID, req.DestinationStationID,
		fareClass.FarePerKm, len(req.Passengers),
	)

	// 3. Admission + insert under the tuple lock
	tx, err := s.bookingRepo.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.LockTuple(tx, train.ID, journeyDate, req.ClassType); err != nil {
		return nil, err
	}

	seatStatus, _, err := s.availability.Admit(tx, train.ID, journeyDate, fareClass, len(req.Passengers))
	if err != nil {
		return nil, err
	}

	pnr, err := s.issuePNR(tx)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		PNR:                  pnr,
		UserID:               subject.UserID,
		TrainID:              train.ID,
		JourneyDate:          journeyDate,
		SourceStationID:      req.SourceStationID,
		DestinationStationID: req.DestinationStationID,
		Passengers:           models.PassengerList(req.Passengers),
		ClassType:            req.ClassType,
		TotalFare:            totalFare,
		SeatStatus:           seatStatus,
		BookingStatus:        models.BookingStatusBooked,
		// Payment is resolved by the (external) payment collaborator
		// before the seat hold commits; no gateway is wired yet.
		PaymentStatus: models.PaymentStatusCompleted,
	}

	if err := s.bookingRepo.Create(tx, booking); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"pnr":         booking.PNR,
		"train_id":    train.ID,
		"class_type":  req.ClassType,
		"seat_status": seatStatus,
		"party_size":  len(req.Passengers),
		"total_fare":  totalFare,
	}).Info("Booking created")

	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

// CancelBooking cancels a booking, computes the refund and promotes
// waiting parties into the freed capacity
func (s *BookingService) CancelBooking(ctx context.Context, subject Subject, bookingID string) (*models.CancellationResult, error) {
	// Resolve the tuple before opening the transaction; authorization and
	// state checks are repeated on the locked row.
	existing, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if existing.UserID != subject.UserID && !subject.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	tx, err := s.bookingRepo.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.LockTuple(tx, existing.TrainID, existing.JourneyDate, existing.ClassType); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByIDForUpdate(tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.IsCancelled() {
		return nil, ErrAlreadyCancelled
	}

	now := s.now()
	if booking.JourneyDate.Sub(now) < s.policy.CancellationCutoff {
		return nil, &CancellationWindowError{
			Cutoff:      s.policy.CancellationCutoff,
			JourneyDate: booking.JourneyDate,
		}
	}

	refundAmount := booking.TotalFare * s.policy.RefundPercent / 100

	done, err := s.bookingRepo.Cancel(tx, bookingID, refundAmount, now)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, ErrAlreadyCancelled
	}

	// Only a Confirmed or RAC cancellation frees capacity anyone is
	// waiting for.
	var promoted []string
	if booking.SeatStatus == models.SeatStatusConfirmed || booking.SeatStatus == models.SeatStatusRAC {
		train, err := s.trainRepo.GetByID(booking.TrainID)
		if err != nil {
			return nil, fmt.Errorf("failed to load train for promotion: %w", err)
		}
		fareClass, ok := train.Classes.Find(booking.ClassType)
		if !ok {
			return nil, ErrInvalidClass
		}
		promoted, err = s.availability.PromoteAfterRelease(tx, booking.TrainID, booking.JourneyDate, fareClass)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"pnr":           booking.PNR,
		"refund_amount": refundAmount,
		"promoted":      len(promoted),
	}).Info("Booking cancelled")

	booking.RefundAmount = refundAmount
	s.publish(ctx, "booking_cancelled", booking)

	return &models.CancellationResult{
		BookingID:        booking.ID,
		PNR:              booking.PNR,
		RefundAmount:     refundAmount,
		CancellationDate: now,
		PromotedPNRs:     promoted,
	}, nil
}

// GetBookingByPNR retrieves a booking by PNR with the same ownership rule
// as cancellation: the owner or an admin
func (s *BookingService) GetBookingByPNR(subject Subject, pnr string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByPNR(pnr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.UserID != subject.UserID && !subject.IsAdmin() {
		return nil, ErrNotAuthorized
	}
	return booking, nil
}

// ListBookingHistory retrieves the subject's bookings, newest first.
// Admins may query across all users.
func (s *BookingService) ListBookingHistory(subject Subject, q models.BookingHistoryQuery) ([]models.Booking, int, error) {
	if !subject.IsAdmin() {
		q.UserID = subject.UserID
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	return s.bookingRepo.History(q)
}

// GetAvailability returns the derived pool snapshot for a tuple. The
// snapshot is informational; admission re-derives it under the tuple lock.
func (s *BookingService) GetAvailability(trainID string, journeyDate time.Time, classType models.ClassType) (*models.ClassAvailability, error) {
	train, err := s.trainRepo.GetByID(trainID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrainNotFound
		}
		return nil, fmt.Errorf("failed to load train: %w", err)
	}

	fareClass, ok := train.Classes.Find(classType)
	if !ok {
		return nil, ErrInvalidClass
	}

	tx, err := s.bookingRepo.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	return s.availability.Snapshot(tx, trainID, journeyDate, fareClass)
}

// issuePNR generates a PNR unique across all bookings: the trailing six
// digits of the unix-millisecond timestamp plus a four-digit random
// disambiguator, collision-checked against storage and regenerated a
// bounded number of times before surfacing a conflict.
func (s *BookingService) issuePNR(tx *sqlx.Tx) (string, error) {
	attempts := s.policy.PNRMaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		pnr, err := s.generatePNR()
		if err != nil {
			return "", err
		}
		exists, err := s.bookingRepo.PNRExists(tx, pnr)
		if err != nil {
			return "", err
		}
		if !exists {
			return pnr, nil
		}
		s.logger.WithField("pnr", pnr).Warn("PNR collision, regenerating")
	}
	return "", fmt.Errorf("%w: could not issue a unique PNR", ErrConflict)
}

func (s *BookingService) generatePNR() (string, error) {
	millis := fmt.Sprintf("%d", s.now().UnixMilli())
	prefix := millis[len(millis)-6:]

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate PNR suffix: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, n.Int64()), nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *models.Booking) {
	if s.producer == nil || s.policy.BookingEventsTopic == "" {
		return
	}
	event := BookingEvent{
		Type:         eventType,
		PNR:          booking.PNR,
		BookingID:    booking.ID,
		UserID:       booking.UserID,
		TrainID:      booking.TrainID,
		JourneyDate:  booking.JourneyDate,
		ClassType:    string(booking.ClassType),
		SeatStatus:   string(booking.SeatStatus),
		TotalFare:    booking.TotalFare,
		RefundAmount: booking.RefundAmount,
	}
	if err := s.producer.Publish(ctx, s.policy.BookingEventsTopic, booking.PNR, event); err != nil {
		s.logger.WithError(err).WithField("pnr", booking.PNR).Warn("Failed to publish booking event")
	}
}
