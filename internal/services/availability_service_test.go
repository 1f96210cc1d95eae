package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/railsewa/railway-reservation-backend/internal/models"
)

func newAvailabilityTest(t *testing.T) (*AvailabilityService, *database.BookingRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := database.NewBookingRepository(sqlxDB)
	svc := NewAvailabilityService(repo, 0.10, 0.10, logger)

	return svc, repo, mock, func() { db.Close() }
}

var testClass = models.FareClass{ClassType: models.ClassSleeper, TotalSeats: 100, FarePerKm: 1.5}

func TestPoolCapacity(t *testing.T) {
	tests := []struct {
		name       string
		totalSeats int
		ratio      float64
		want       int
	}{
		{"Standard", 100, 0.10, 10},
		{"Rounds Down", 25, 0.10, 2},
		{"Clamped To One", 5, 0.10, 1},
		{"Zero Ratio Disables Pool", 100, 0, 0},
		{"Negative Ratio Disables Pool", 100, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, poolCapacity(tt.totalSeats, tt.ratio))
		})
	}
}

func TestSnapshot(t *testing.T) {
	journeyDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Derives Pools From Counts", func(t *testing.T) {
		svc, repo, mock, cleanup := newAvailabilityTest(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery("COALESCE").
			WithArgs("train-1", journeyDate, models.ClassSleeper).
			WillReturnRows(seatCountRows(60, 3, 1))

		tx, err := repo.Begin()
		require.NoError(t, err)

		avail, err := svc.Snapshot(tx, "train-1", journeyDate, testClass)
		require.NoError(t, err)
		assert.Equal(t, 100, avail.TotalSeats)
		assert.Equal(t, 60, avail.ConfirmedSeats)
		assert.Equal(t, 40, avail.AvailableSeats)
		assert.Equal(t, 10, avail.RACCapacity)
		assert.Equal(t, 3, avail.RACSeats)
		assert.Equal(t, 10, avail.WaitlistCapacity)
		assert.Equal(t, 1, avail.WaitingSeats)
	})

	t.Run("Available Never Negative", func(t *testing.T) {
		svc, repo, mock, cleanup := newAvailabilityTest(t)
		defer cleanup()

		mock.ExpectBegin()
		// Confirmed above capacity can happen when an admin shrinks a class
		mock.ExpectQuery("COALESCE").
			WillReturnRows(seatCountRows(110, 0, 0))

		tx, err := repo.Begin()
		require.NoError(t, err)

		avail, err := svc.Snapshot(tx, "train-1", journeyDate, testClass)
		require.NoError(t, err)
		assert.Equal(t, 0, avail.AvailableSeats)
	})
}

func TestAdmit(t *testing.T) {
	journeyDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		confirmed  int
		rac        int
		waiting    int
		partySize  int
		wantStatus models.SeatStatus
		wantErr    bool
	}{
		{"Empty Train", 0, 0, 0, 2, models.SeatStatusConfirmed, false},
		{"Exactly Fills Confirmed", 96, 0, 0, 4, models.SeatStatusConfirmed, false},
		{"Party Larger Than Remainder Goes To RAC", 98, 0, 0, 4, models.SeatStatusRAC, false},
		{"Exactly Fills RAC", 100, 6, 0, 4, models.SeatStatusRAC, false},
		{"RAC Full Goes To Waiting", 100, 10, 0, 4, models.SeatStatusWaiting, false},
		{"Exactly Fills Waiting", 100, 10, 6, 4, models.SeatStatusWaiting, false},
		{"Everything Full", 100, 10, 10, 1, "", true},
		{"Party Exceeds All Remainders", 99, 9, 9, 2, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, mock, cleanup := newAvailabilityTest(t)
			defer cleanup()

			mock.ExpectBegin()
			mock.ExpectQuery("COALESCE").
				WillReturnRows(seatCountRows(tt.confirmed, tt.rac, tt.waiting))

			tx, err := repo.Begin()
			require.NoError(t, err)

			status, avail, err := svc.Admit(tx, "train-1", journeyDate, testClass, tt.partySize)
			if tt.wantErr {
				require.Error(t, err)
				var capacityErr *CapacityError
				require.ErrorAs(t, err, &capacityErr)
				assert.Equal(t, tt.partySize, capacityErr.Requested)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
			require.NotNil(t, avail)
			assert.Equal(t, tt.confirmed, avail.ConfirmedSeats)
		})
	}
}

func TestPromoteAfterRelease(t *testing.T) {
	journeyDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Oldest RAC Booking Promoted First", func(t *testing.T) {
		svc, repo, mock, cleanup := newAvailabilityTest(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery("COALESCE").
			WillReturnRows(seatCountRows(99, 2, 0))
		rows := addBooking(bookingRows(), "booking-old", "7100230001", "user-1", 1,
			models.SeatStatusRAC, models.BookingStatusBooked, 150, journeyDate)
		rows = addBooking(rows, "booking-new", "7100230002", "user-2", 1,
			models.SeatStatusRAC, models.BookingStatusBooked, 150, journeyDate)
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(rows)
		// Only one seat freed: the older booking takes it, the newer stays RAC
		mock.ExpectExec(`SET seat_status`).
			WithArgs("booking-old", models.SeatStatusRAC, models.SeatStatusConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(bookingRows())

		tx, err := repo.Begin()
		require.NoError(t, err)

		promoted, err := svc.PromoteAfterRelease(tx, "train-1", journeyDate, testClass)
		require.NoError(t, err)
		assert.Equal(t, []string{"7100230001"}, promoted)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Oversized Party Skipped Not Split", func(t *testing.T) {
		svc, repo, mock, cleanup := newAvailabilityTest(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery("COALESCE").
			WillReturnRows(seatCountRows(99, 3, 0))
		rows := addBooking(bookingRows(), "booking-party", "7100230001", "user-1", 2,
			models.SeatStatusRAC, models.BookingStatusBooked, 300, journeyDate)
		rows = addBooking(rows, "booking-single", "7100230002", "user-2", 1,
			models.SeatStatusRAC, models.BookingStatusBooked, 150, journeyDate)
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(rows)
		// The party of two does not fit the single freed seat; the walk
		// continues to the next booking in queue
		mock.ExpectExec(`SET seat_status`).
			WithArgs("booking-single", models.SeatStatusRAC, models.SeatStatusConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(bookingRows())

		tx, err := repo.Begin()
		require.NoError(t, err)

		promoted, err := svc.PromoteAfterRelease(tx, "train-1", journeyDate, testClass)
		require.NoError(t, err)
		assert.Equal(t, []string{"7100230002"}, promoted)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Waiting Backfills Freed RAC Slot", func(t *testing.T) {
		svc, repo, mock, cleanup := newAvailabilityTest(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery("COALESCE").
			WillReturnRows(seatCountRows(99, 1, 2))
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(addBooking(bookingRows(), "booking-rac", "7100230001", "user-1", 1,
				models.SeatStatusRAC, models.BookingStatusBooked, 150, journeyDate))
		mock.ExpectExec(`SET seat_status`).
			WithArgs("booking-rac", models.SeatStatusRAC, models.SeatStatusConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(addBooking(bookingRows(), "booking-wait", "7100230002", "user-2", 1,
				models.SeatStatusWaiting, models.BookingStatusBooked, 150, journeyDate))
		mock.ExpectExec(`SET seat_status`).
			WithArgs("booking-wait", models.SeatStatusWaiting, models.SeatStatusRAC).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := repo.Begin()
		require.NoError(t, err)

		promoted, err := svc.PromoteAfterRelease(tx, "train-1", journeyDate, testClass)
		require.NoError(t, err)
		assert.Equal(t, []string{"7100230001", "7100230002"}, promoted)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Concurrent State Change Skips Booking", func(t *testing.T) {
		svc, repo, mock, cleanup := newAvailabilityTest(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery("COALESCE").
			WillReturnRows(seatCountRows(99, 1, 0))
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(addBooking(bookingRows(), "booking-rac", "7100230001", "user-1", 1,
				models.SeatStatusRAC, models.BookingStatusBooked, 150, journeyDate))
		// The conditional update affects zero rows: the booking was
		// cancelled between the snapshot and the promotion
		mock.ExpectExec(`SET seat_status`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(bookingRows())

		tx, err := repo.Begin()
		require.NoError(t, err)

		promoted, err := svc.PromoteAfterRelease(tx, "train-1", journeyDate, testClass)
		require.NoError(t, err)
		assert.Empty(t, promoted)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing To Promote", func(t *testing.T) {
		svc, repo, mock, cleanup := newAvailabilityTest(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery("COALESCE").
			WillReturnRows(seatCountRows(50, 0, 0))
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(bookingRows())
		mock.ExpectQuery(`ORDER BY created_at ASC, id ASC`).
			WillReturnRows(bookingRows())

		tx, err := repo.Begin()
		require.NoError(t, err)

		promoted, err := svc.PromoteAfterRelease(tx, "train-1", journeyDate, testClass)
		require.NoError(t, err)
		assert.Empty(t, promoted)
	})
}
