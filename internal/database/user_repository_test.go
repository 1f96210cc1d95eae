package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railsewa/railway-reservation-backend/internal/models"
)

func newUserRepoTest(t *testing.T) (*UserRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	return NewUserRepository(&PostgresDB{DB: sqlxDB}), mock, func() { db.Close() }
}

func userTestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "password_hash", "role", "is_active", "created_at", "updated_at",
	})
}

func TestCreateUser(t *testing.T) {
	repo, mock, cleanup := newUserRepoTest(t)
	defer cleanup()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), "Asha Perera", "asha@example.com", "0771234567",
				sqlmock.AnyArg(), models.RoleUser).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		user := &models.User{
			Name:         "Asha Perera",
			Email:        "asha@example.com",
			Phone:        "0771234567",
			PasswordHash: "$2a$10$hash",
			Role:         models.RoleUser,
		}
		err := repo.Create(user)
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.True(t, user.IsActive)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))

		err := repo.Create(&models.User{Email: "asha@example.com"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
	})
}

func TestGetUserByEmail(t *testing.T) {
	repo, mock, cleanup := newUserRepoTest(t)
	defer cleanup()

	now := time.Now()

	mock.ExpectQuery("FROM users").
		WithArgs("asha@example.com").
		WillReturnRows(userTestRows().AddRow(
			"user-1", "Asha Perera", "asha@example.com", "0771234567",
			"$2a$10$hash", "user", true, now, now,
		))

	user, err := repo.GetByEmail("asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.IsAdmin())
}

func TestEmailOrPhoneTaken(t *testing.T) {
	repo, mock, cleanup := newUserRepoTest(t)
	defer cleanup()

	t.Run("Taken", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("asha@example.com", "0771234567", "user-2").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		taken, err := repo.EmailOrPhoneTaken("asha@example.com", "0771234567", "user-2")
		require.NoError(t, err)
		assert.True(t, taken)
	})

	t.Run("Free", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("new@example.com", "0770000000", "user-2").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		taken, err := repo.EmailOrPhoneTaken("new@example.com", "0770000000", "user-2")
		require.NoError(t, err)
		assert.False(t, taken)
	})
}

func TestUpdateUserRole(t *testing.T) {
	repo, mock, cleanup := newUserRepoTest(t)
	defer cleanup()

	now := time.Now()

	mock.ExpectQuery("UPDATE users").
		WithArgs("user-1", models.RoleAgent).
		WillReturnRows(userTestRows().AddRow(
			"user-1", "Asha Perera", "asha@example.com", "0771234567",
			"$2a$10$hash", "agent", true, now, now,
		))

	user, err := repo.UpdateRole("user-1", models.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAgent, user.Role)
}

func TestListUsers(t *testing.T) {
	repo, mock, cleanup := newUserRepoTest(t)
	defer cleanup()

	now := time.Now()
	active := true

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(models.RoleUser, active).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(models.RoleUser, active, 10, 0).
		WillReturnRows(userTestRows().AddRow(
			"user-1", "Asha Perera", "asha@example.com", "0771234567",
			"$2a$10$hash", "user", true, now, now,
		))

	users, total, err := repo.List(models.UserListQuery{
		Role:     models.RoleUser,
		IsActive: &active,
		Page:     1,
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}
