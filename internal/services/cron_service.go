package services

import (
	"fmt"
	"log"
	"time"

	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/robfig/cron/v3"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron             *cron.Cron
	refreshTokenRepo *database.RefreshTokenRepository
	bookingRepo      *database.BookingRepository
}

// NewCronService creates a new CronService
func NewCronService(refreshTokenRepo *database.RefreshTokenRepository, bookingRepo *database.BookingRepository) *CronService {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:             c,
		refreshTokenRepo: refreshTokenRepo,
		bookingRepo:      bookingRepo,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	// Job 1: Purge expired refresh tokens hourly
	// Cron format: second minute hour day month weekday
	_, err := s.cron.AddFunc("0 0 * * * *", s.purgeExpiredTokensJob)
	if err != nil {
		return fmt.Errorf("failed to schedule token purge job: %w", err)
	}
	log.Println("Scheduled: Purge expired refresh tokens (hourly)")

	// Job 2: Close out departed waiting-list bookings daily at 1 AM
	_, err = s.cron.AddFunc("0 0 1 * * *", s.closeOutDepartedWaitingJob)
	if err != nil {
		return fmt.Errorf("failed to schedule waiting close-out job: %w", err)
	}
	log.Println("Scheduled: Close out departed waiting-list bookings (daily at 1:00 AM)")

	s.cron.Start()
	log.Println("Cron service started")

	return nil
}

// Stop stops all cron jobs
func (s *CronService) Stop() {
	log.Println("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Cron service stopped")
}

func (s *CronService) purgeExpiredTokensJob() {
	deleted, err := s.refreshTokenRepo.DeleteExpired()
	if err != nil {
		log.Printf("[CRON ERROR] Failed to purge expired refresh tokens: %v\n", err)
		return
	}
	if deleted > 0 {
		log.Printf("[CRON] Purged %d expired refresh tokens\n", deleted)
	}
}

// closeOutDepartedWaitingJob cancels waiting-list bookings whose train has
// already departed. These parties never held a seat, so the full fare is
// refunded and no promotion runs.
func (s *CronService) closeOutDepartedWaitingJob() {
	closed, err := s.bookingRepo.CloseOutDepartedWaiting(time.Now())
	if err != nil {
		log.Printf("[CRON ERROR] Failed to close out departed waiting bookings: %v\n", err)
		return
	}
	if closed > 0 {
		log.Printf("[CRON] Closed out %d departed waiting-list bookings\n", closed)
	}
}
