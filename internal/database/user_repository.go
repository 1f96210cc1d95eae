package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/railsewa/railway-reservation-backend/internal/models"
)

// UserRepository handles database operations for the users table
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING created_at, updated_at
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.IsActive = true

	err := r.db.QueryRow(
		query,
		user.ID, user.Name, user.Email, user.Phone, user.PasswordHash, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(userID string) (*models.User, error) {
	query := `
		SELECT id, name, email, phone, password_hash, role, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	if err := r.db.Get(&user, query, userID); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, name, email, phone, password_hash, role, is_active, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var user models.User
	if err := r.db.Get(&user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailOrPhoneTaken reports whether another user already holds the given
// email or phone number
func (r *UserRepository) EmailOrPhoneTaken(email, phone, excludeUserID string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM users
		WHERE (email = $1 OR phone = $2) AND id != $3
	`

	var count int
	if err := r.db.Get(&count, query, email, phone, excludeUserID); err != nil {
		return false, fmt.Errorf("failed to check email/phone uniqueness: %w", err)
	}
	return count > 0, nil
}

// UpdateProfile updates a user's profile fields
func (r *UserRepository) UpdateProfile(userID string, name, email, phone string) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, email, phone, password_hash, role, is_active, created_at, updated_at
	`

	var user models.User
	if err := r.db.Get(&user, query, userID, name, email, phone); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(userID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// UpdateStatus activates or deactivates a user
func (r *UserRepository) UpdateStatus(userID string, isActive bool) (*models.User, error) {
	query := `
		UPDATE users
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, email, phone, password_hash, role, is_active, created_at, updated_at
	`

	var user models.User
	if err := r.db.Get(&user, query, userID, isActive); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(userID string, role models.Role) (*models.User, error) {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, email, phone, password_hash, role, is_active, created_at, updated_at
	`

	var user models.User
	if err := r.db.Get(&user, query, userID, role); err != nil {
		return nil, err
	}
	return &user, nil
}

// List retrieves users with optional role/status filters, newest first
func (r *UserRepository) List(q models.UserListQuery) ([]models.User, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if q.Role != "" {
		where += fmt.Sprintf(" AND role = $%d", argIdx)
		args = append(args, q.Role)
		argIdx++
	}
	if q.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argIdx)
		args = append(args, *q.IsActive)
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM users " + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, phone, password_hash, role, is_active, created_at, updated_at
		FROM users
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argIdx, argIdx+1)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	var users []models.User
	if err := r.db.Select(&users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}
