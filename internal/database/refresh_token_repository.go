package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/railsewa/railway-reservation-backend/internal/models"
)

// RefreshTokenRepository handles database operations for the
// refresh_tokens table. Tokens are stored as SHA-256 hashes only.
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Store saves a new refresh token hash
func (r *RefreshTokenRepository) Store(userID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(query, uuid.New().String(), userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// GetByHash retrieves an unrevoked, unexpired token by hash
func (r *RefreshTokenRepository) GetByHash(tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
		  AND revoked_at IS NULL
		  AND expires_at > NOW()
	`

	var token models.RefreshToken
	if err := r.db.Get(&token, query, tokenHash); err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke marks a token as revoked
func (r *RefreshTokenRepository) Revoke(tokenHash string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`

	_, err := r.db.Exec(query, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every active token held by a user
func (r *RefreshTokenRepository) RevokeAllForUser(userID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`

	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens past their expiry, returning the count removed
func (r *RefreshTokenRepository) DeleteExpired() (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < NOW()`

	result, err := r.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
