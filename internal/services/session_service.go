package services

import (
	"fmt"

	ua "github.com/mssola/user_agent"
	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/railsewa/railway-reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// SessionService records login sessions for auditing
type SessionService struct {
	sessionRepo *database.SessionRepository
	logger      *logrus.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(sessionRepo *database.SessionRepository, logger *logrus.Logger) *SessionService {
	return &SessionService{sessionRepo: sessionRepo, logger: logger}
}

// RecordLogin stores a login session with a parsed device summary.
// Failures are logged, not surfaced: auditing never blocks a login.
func (s *SessionService) RecordLogin(userID, ipAddress, userAgent string) {
	session := &models.UserSession{
		UserID:     userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: summarizeDevice(userAgent),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to record login session")
	}
}

// summarizeDevice condenses a User-Agent header into "Browser x.y on OS
// (mobile|desktop)"
func summarizeDevice(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}

	parser := ua.New(userAgent)
	browser, version := parser.Browser()
	if browser == "" {
		browser = "unknown"
	}

	device := "desktop"
	if parser.Mobile() {
		device = "mobile"
	}
	if parser.Bot() {
		device = "bot"
	}

	osInfo := parser.OS()
	if osInfo == "" {
		osInfo = "unknown"
	}

	if version != "" {
		return fmt.Sprintf("%s %s on %s (%s)", browser, version, osInfo, device)
	}
	return fmt.Sprintf("%s on %s (%s)", browser, osInfo, device)
}
