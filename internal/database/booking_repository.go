package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/railsewa/railway-reservation-backend/internal/models"
)

// BookingRepository handles database operations for the bookings table.
// It takes *sqlx.DB directly because the booking engine needs transaction
// scope: seat accounting for a (train, journey date, class) tuple and the
// writes that depend on it must happen inside one transaction, serialized
// by a per-tuple advisory lock.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, pnr, user_id, train_id, journey_date, source_station_id, destination_station_id,
	passengers, class_type, total_fare, seat_status, booking_status, payment_status,
	payment_id, cancellation_date, refund_amount, created_at, updated_at
`

// TupleSeatCounts holds the passenger counts per seat status for one
// (train, journey date, class) tuple, derived from non-cancelled bookings
type TupleSeatCounts struct {
	Confirmed int `db:"confirmed"`
	RAC       int `db:"rac"`
	Waiting   int `db:"waiting"`
}

// Begin opens a transaction for a booking unit of work
func (r *BookingRepository) Begin() (*sqlx.Tx, error) {
	return r.db.Beginx()
}

// LockTuple serializes the transaction against all other writers of the
// same (train, journey date, class) tuple. The advisory lock is released
// automatically at commit or rollback.
func (r *BookingRepository) LockTuple(tx *sqlx.Tx, trainID string, journeyDate time.Time, classType models.ClassType) error {
	key := fmt.Sprintf("%s|%s|%s", trainID, journeyDate.Format("2006-01-02"), classType)
	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock tuple %s: %w", key, err)
	}
	return nil
}

// SeatCounts sums the passenger counts of non-cancelled bookings for the
// tuple, grouped by seat status. Must run inside a tuple-locked transaction
// so the snapshot cannot race a concurrent admission.
func (r *BookingRepository) SeatCounts(tx *sqlx.Tx, trainID string, journeyDate time.Time, classType models.ClassType) (*TupleSeatCounts, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN seat_status = 'Confirmed' THEN jsonb_array_length(passengers) END), 0) AS confirmed,
			COALESCE(SUM(CASE WHEN seat_status = 'RAC' THEN jsonb_array_length(passengers) END), 0) AS rac,
			COALESCE(SUM(CASE WHEN seat_status = 'Waiting' THEN jsonb_array_length(passengers) END), 0) AS waiting
		FROM bookings
		WHERE train_id = $1
		  AND journey_date = $2
		  AND class_type = $3
		  AND booking_status != 'Cancelled'
	`

	var counts TupleSeatCounts
	if err := tx.Get(&counts, query, trainID, journeyDate, classType); err != nil {
		return nil, fmt.Errorf("failed to derive seat counts: %w", err)
	}
	return &counts, nil
}

// ActiveBySeatStatus returns the tuple's non-cancelled bookings holding the
// given seat status, oldest first (created_at, then id, for a deterministic
// promotion order)
func (r *BookingRepository) ActiveBySeatStatus(tx *sqlx.Tx, trainID string, journeyDate time.Time, classType models.ClassType, status models.SeatStatus) ([]models.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE train_id = $1
		  AND journey_date = $2
		  AND class_type = $3
		  AND seat_status = $4
		  AND booking_status = 'Booked'
		ORDER BY created_at ASC, id ASC
	`

	var bookings []models.Booking
	if err := tx.Select(&bookings, query, trainID, journeyDate, classType, status); err != nil {
		return nil, fmt.Errorf("failed to load %s bookings: %w", status, err)
	}
	return bookings, nil
}

// Create inserts a new booking within the transaction
func (r *BookingRepository) Create(tx *sqlx.Tx, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, pnr, user_id, train_id, journey_date, source_station_id,
			destination_station_id, passengers, class_type, total_fare,
			seat_status, booking_status, payment_status, refund_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0)
		RETURNING created_at, updated_at
	`

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	err := tx.QueryRow(
		query,
		booking.ID, booking.PNR, booking.UserID, booking.TrainID, booking.JourneyDate,
		booking.SourceStationID, booking.DestinationStationID, booking.Passengers,
		booking.ClassType, booking.TotalFare, booking.SeatStatus,
		booking.BookingStatus, booking.PaymentStatus,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// PNRExists reports whether any booking ever used the PNR
func (r *BookingRepository) PNRExists(tx *sqlx.Tx, pnr string) (bool, error) {
	var count int
	if err := tx.Get(&count, `SELECT COUNT(*) FROM bookings WHERE pnr = $1`, pnr); err != nil {
		return false, fmt.Errorf("failed to check PNR: %w", err)
	}
	return count > 0, nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + `FROM bookings WHERE id = $1`

	var booking models.Booking
	if err := r.db.Get(&booking, query, bookingID); err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDForUpdate retrieves a booking by ID with a row lock, inside the
// caller's transaction
func (r *BookingRepository) GetByIDForUpdate(tx *sqlx.Tx, bookingID string) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + `FROM bookings WHERE id = $1 FOR UPDATE`

	var booking models.Booking
	if err := tx.Get(&booking, query, bookingID); err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByPNR retrieves a booking by its PNR
func (r *BookingRepository) GetByPNR(pnr string) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + `FROM bookings WHERE pnr = $1`

	var booking models.Booking
	if err := r.db.Get(&booking, query, pnr); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Cancel transitions a booking to its terminal cancelled state. The
// booking_status guard makes the transition atomic: a second cancellation
// of the same booking affects zero rows.
func (r *BookingRepository) Cancel(tx *sqlx.Tx, bookingID string, refundAmount float64, cancelledAt time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET booking_status = 'Cancelled',
		    seat_status = 'Cancelled',
		    payment_status = 'Refunded',
		    cancellation_date = $2,
		    refund_amount = $3,
		    updated_at = NOW()
		WHERE id = $1 AND booking_status = 'Booked'
	`

	result, err := tx.Exec(query, bookingID, cancelledAt, refundAmount)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// PromoteSeatStatus moves a booking from one seat status to another. The
// conditional WHERE keeps the transition atomic; zero rows means the
// booking changed state concurrently and must not be promoted.
func (r *BookingRepository) PromoteSeatStatus(tx *sqlx.Tx, bookingID string, from, to models.SeatStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET seat_status = $3, updated_at = NOW()
		WHERE id = $1 AND seat_status = $2 AND booking_status = 'Booked'
	`

	result, err := tx.Exec(query, bookingID, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to promote booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// History retrieves bookings matching the filters, newest first
func (r *BookingRepository) History(q models.BookingHistoryQuery) ([]models.Booking, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if q.UserID != "" {
		where += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, q.UserID)
		argIdx++
	}
	if q.Status != "" {
		where += fmt.Sprintf(" AND booking_status = $%d", argIdx)
		args = append(args, q.Status)
		argIdx++
	}
	// Each bound applies on its own so open-ended ranges work
	if q.StartDate != nil {
		where += fmt.Sprintf(" AND journey_date >= $%d", argIdx)
		args = append(args, *q.StartDate)
		argIdx++
	}
	if q.EndDate != nil {
		where += fmt.Sprintf(" AND journey_date <= $%d", argIdx)
		args = append(args, *q.EndDate)
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM bookings " + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, bookingColumns, where, argIdx, argIdx+1)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, total, nil
}

// CloseOutDepartedWaiting cancels Waiting bookings whose journey date has
// passed, refunding the full fare. Waiting bookings never held a seat, so
// no promotion is needed. Returns the number of bookings closed out.
func (r *BookingRepository) CloseOutDepartedWaiting(before time.Time) (int64, error) {
	query := `
		UPDATE bookings
		SET booking_status = 'Cancelled',
		    seat_status = 'Cancelled',
		    payment_status = 'Refunded',
		    cancellation_date = NOW(),
		    refund_amount = total_fare,
		    updated_at = NOW()
		WHERE seat_status = 'Waiting'
		  AND booking_status = 'Booked'
		  AND journey_date < $1
	`

	result, err := r.db.Exec(query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to close out departed waiting bookings: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
