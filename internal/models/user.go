package models

import (
	"fmt"
	"regexp"
	"time"
)

// Role represents a user's role
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// IsValid reports whether the role is one of the supported roles
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleAgent
}

var phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)

// User represents a registered user (users table)
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RefreshToken represents a stored refresh token (refresh_tokens table).
// Only the SHA-256 hash of the token is persisted.
type RefreshToken struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	TokenHash string     `json:"-" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// UserSession records a login for auditing (user_sessions table)
type UserSession struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	IPAddress  string    `json:"ip_address" db:"ip_address"`
	UserAgent  string    `json:"user_agent" db:"user_agent"`
	DeviceInfo string    `json:"device_info" db:"device_info"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// RegisterRequest is the payload for user registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role"`
}

// Validate validates the registration request
func (r *RegisterRequest) Validate() error {
	if !phoneRegex.MatchString(r.Phone) {
		return fmt.Errorf("phone must be a 10-digit number")
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}
	if r.Role == "" {
		r.Role = RoleUser
	}
	if !r.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", r.Role)
	}
	return nil
}

// LoginRequest is the payload for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the payload for profile updates
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Validate validates the profile update request
func (r *UpdateProfileRequest) Validate() error {
	if r.Phone != nil && !phoneRegex.MatchString(*r.Phone) {
		return fmt.Errorf("phone must be a 10-digit number")
	}
	return nil
}

// ChangePasswordRequest is the payload for password changes
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Validate validates the change password request
func (r *ChangePasswordRequest) Validate() error {
	if len(r.NewPassword) < 6 {
		return fmt.Errorf("new password must be at least 6 characters long")
	}
	return nil
}

// UserListQuery holds admin user listing filters
type UserListQuery struct {
	Role     Role
	IsActive *bool
	Page     int
	Limit    int
}
