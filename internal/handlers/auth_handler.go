package handlers

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/railsewa/railway-reservation-backend/internal/config"
	"github.com/railsewa/railway-reservation-backend/internal/database"
	"github.com/railsewa/railway-reservation-backend/internal/models"
	"github.com/railsewa/railway-reservation-backend/internal/services"
	"github.com/railsewa/railway-reservation-backend/pkg/jwt"
)

// AuthHandler handles registration, login and token refresh
type AuthHandler struct {
	userRepo       *database.UserRepository
	tokenRepo      *database.RefreshTokenRepository
	jwtService     *jwt.Service
	sessionService *services.SessionService
	cfg            *config.Config
	logger         *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	userRepo *database.UserRepository,
	tokenRepo *database.RefreshTokenRepository,
	jwtService *jwt.Service,
	sessionService *services.SessionService,
	cfg *config.Config,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		userRepo:       userRepo,
		tokenRepo:      tokenRepo,
		jwtService:     jwtService,
		sessionService: sessionService,
		cfg:            cfg,
		logger:         logger,
	}
}

// TokenPairResponse carries a fresh access/refresh token pair
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime in seconds
}

// RefreshRequest is the payload for token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
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

	// Self-registration never grants elevated roles
	if req.Role != models.RoleUser {
		req.Role = models.RoleUser
	}

	taken, err := h.userRepo.EmailOrPhoneTaken(req.Email, req.Phone, uuid.Nil.String())
	if err != nil {
		h.logger.WithError(err).Error("Failed to check email/phone uniqueness")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to register user",
			Code:    "INTERNAL_ERROR",
		})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "user_exists",
			Message: "A user with this email or phone already exists",
			Code:    "USER_EXISTS",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cfg.Security.BcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to register user",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := h.userRepo.Create(user); err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to register user",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue tokens after registration")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "User created but token issuance failed, please log in",
			Code:    "TOKEN_ERROR",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
		"tokens":  tokens,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	user, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_credentials",
				Message: "Invalid email or password",
				Code:    "INVALID_CREDENTIALS",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to look up user for login")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to log in",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid email or password",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "account_disabled",
			Message: "This account has been deactivated",
			Code:    "ACCOUNT_DISABLED",
		})
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue tokens on login")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to log in",
			Code:    "TOKEN_ERROR",
		})
		return
	}

	h.sessionService.RecordLogin(user.ID, c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// Refresh handles POST /api/auth/refresh. The presented token is rotated:
// the stored hash is revoked and a new pair is issued.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired refresh token",
			Code:    "INVALID_REFRESH_TOKEN",
		})
		return
	}

	stored, err := h.tokenRepo.GetByHash(hashToken(req.RefreshToken))
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Refresh token is not recognized or has been revoked",
			Code:    "INVALID_REFRESH_TOKEN",
		})
		return
	}

	user, err := h.userRepo.GetByID(claims.UserID)
	if err != nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "User is no longer active",
			Code:    "INVALID_REFRESH_TOKEN",
		})
		return
	}

	if err := h.tokenRepo.Revoke(stored.TokenHash); err != nil {
		h.logger.WithError(err).Error("Failed to revoke rotated refresh token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to refresh tokens",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue rotated tokens")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to refresh tokens",
			Code:    "TOKEN_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout handles POST /api/auth/logout, revoking every active refresh
// token held by the caller
func (h *AuthHandler) Logout(c *gin.Context) {
	userCtx, ok := getUserContext(c)
	if !ok {
		return
	}

	if err := h.tokenRepo.RevokeAllForUser(userCtx.UserID); err != nil {
		h.logger.WithError(err).Error("Failed to revoke tokens on logout")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to log out",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) issueTokens(user *models.User) (*TokenPairResponse, error) {
	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(h.cfg.JWT.RefreshTokenExpiry)
	if err := h.tokenRepo.Store(user.ID, hashToken(refreshToken), expiresAt); err != nil {
		return nil, err
	}

	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(h.cfg.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
