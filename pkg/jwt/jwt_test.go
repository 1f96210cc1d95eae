package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-secret-key-for-testing-purposes"
	testRefreshSecret = "test-refresh-secret-key-for-testing-purposes"
)

func TestNewService(t *testing.T) {
	service := NewService(
		testAccessSecret,
		testRefreshSecret,
		time.Hour,
		24*time.Hour,
	)

	assert.NotNil(t, service)
	assert.Equal(t, testAccessSecret, service.accessSecret)
	assert.Equal(t, testRefreshSecret, service.refreshSecret)
	assert.Equal(t, time.Hour, service.accessTokenExpiry)
	assert.Equal(t, 24*time.Hour, service.refreshTokenExpiry)
}

func TestGenerateAccessToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	userID := uuid.New().String()
	email := "user@example.com"

	token, err := service.GenerateAccessToken(userID, email, "user")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// Validate the generated token
	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, email, claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestGenerateRefreshToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	userID := uuid.New().String()
	email := "user@example.com"

	token, err := service.GenerateRefreshToken(userID, email)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// Validate the generated token
	claims, err := service.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, email, claims.Email)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestValidateAccessToken_WrongType(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)

	// A refresh token must not validate as an access token
	token, err := service.GenerateRefreshToken(uuid.New().String(), "user@example.com")
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_TamperedToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)

	token, err := service.GenerateAccessToken(uuid.New().String(), "user@example.com", "admin")
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token + "tampered")
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, -time.Hour, 24*time.Hour)

	token, err := service.GenerateAccessToken(uuid.New().String(), "user@example.com", "user")
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
	assert.True(t, service.IsTokenExpired(token))
}
