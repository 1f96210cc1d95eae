package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/railsewa/railway-reservation-backend/internal/models"
)

// SessionRepository handles database operations for the user_sessions table
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create records a login session
func (r *SessionRepository) Create(session *models.UserSession) error {
	query := `
		INSERT INTO user_sessions (id, user_id, ip_address, user_agent, device_info)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		session.ID, session.UserID, session.IPAddress, session.UserAgent, session.DeviceInfo,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// ListForUser retrieves a user's most recent sessions
func (r *SessionRepository) ListForUser(userID string, limit int) ([]models.UserSession, error) {
	query := `
		SELECT id, user_id, ip_address, user_agent, device_info, created_at
		FROM user_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var sessions []models.UserSession
	if err := r.db.Select(&sessions, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
