package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/railsewa/railway-reservation-backend/internal/config"
	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/railsewa/railway-reservation-backend/internal/models"
)

// UserHandler handles profile and admin user management endpoints
type UserHandler struct {
	userRepo    *database.UserRepository
	tokenRepo   *database.RefreshTokenRepository
	sessionRepo *database.SessionRepository
	cfg         *config.Config
	logger      *logrus.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(
	userRepo *database.UserRepository,
	tokenRepo *database.RefreshTokenRepository,
	sessionRepo *database.SessionRepository,
	cfg *config.Config,
	logger *logrus.Logger,
) *UserHandler {
	return &UserHandler{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// UpdateStatusRequest is the payload for activating/deactivating a user
type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// UpdateRoleRequest is the payload for changing a user's role
type UpdateRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// GetProfile handles GET /api/users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userCtx, ok := getUserContext(c)
	if !ok {
		return
	}

	user, err := h.userRepo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "User not found",
				Code:    "NOT_FOUND",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch user profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch profile",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userCtx, ok := getUserContext(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	current, err := h.userRepo.GetByID(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load user for profile update")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update profile",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	name, email, phone := current.Name, current.Email, current.Phone
	if req.Name != nil {
		name = *req.Name
	}
	if req.Email != nil {
		email = *req.Email
	}
	if req.Phone != nil {
		phone = *req.Phone
	}

	if email != current.Email || phone != current.Phone {
		taken, err := h.userRepo.EmailOrPhoneTaken(email, phone, userCtx.UserID)
		if err != nil {
			h.logger.WithError(err).Error("Failed to check email/phone uniqueness")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to update profile",
				Code:    "INTERNAL_ERROR",
			})
			return
		}
		if taken {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "user_exists",
				Message: "Another user already holds this email or phone",
				Code:    "USER_EXISTS",
			})
			return
		}
	}

	user, err := h.userRepo.UpdateProfile(userCtx.UserID, name, email, phone)
	if err != nil {
		h.logger.WithError(err).Error("Failed to update user profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update profile",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ChangePassword handles PUT /api/users/password. All refresh tokens are
// revoked after a successful change.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userCtx, ok := getUserContext(c)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	user, err := h.userRepo.GetByID(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load user for password change")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to change password",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Current password is incorrect",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.cfg.Security.BcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash new password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to change password",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	if err := h.userRepo.UpdatePassword(userCtx.UserID, string(hash)); err != nil {
		h.logger.WithError(err).Error("Failed to update password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to change password",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	if err := h.tokenRepo.RevokeAllForUser(userCtx.UserID); err != nil {
		h.logger.WithError(err).Warn("Failed to revoke tokens after password change")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// GetSessions handles GET /api/users/sessions
func (h *UserHandler) GetSessions(c *gin.Context) {
	userCtx, ok := getUserContext(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	sessions, err := h.sessionRepo.ListForUser(userCtx.UserID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch sessions",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// ListUsers handles GET /api/users (admin)
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)

	query := models.UserListQuery{
		Role:  models.Role(c.Query("role")),
		Page:  page,
		Limit: limit,
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		query.IsActive = &active
	}

	users, total, err := h.userRepo.List(query)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch users",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": newPagination(total, page, limit),
	})
}

// UpdateUserStatus handles PUT /api/users/:userId/status (admin)
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	userID := c.Param("userId")

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	user, err := h.userRepo.UpdateStatus(userID, *req.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "User not found",
				Code:    "NOT_FOUND",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to update user status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update user status",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	// Deactivation invalidates outstanding refresh tokens
	if !user.IsActive {
		if err := h.tokenRepo.RevokeAllForUser(userID); err != nil {
			h.logger.WithError(err).Warn("Failed to revoke tokens for deactivated user")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User status updated",
		"user":    user,
	})
}

// UpdateUserRole handles PUT /api/users/:userId/role (admin)
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	userID := c.Param("userId")

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}
	if !req.Role.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid role",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	user, err := h.userRepo.UpdateRole(userID, req.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "User not found",
				Code:    "NOT_FOUND",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to update user role")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update user role",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User role updated",
		"user":    user,
	})
}
