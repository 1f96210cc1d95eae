package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railsewa/railway-reservation-backend/internal/models"
)

func newTrainRepoTest(t *testing.T) (*TrainRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	return NewTrainRepository(&PostgresDB{DB: sqlxDB}), mock, func() { db.Close() }
}

func trainTestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "train_number", "train_name", "source_station_id", "destination_station_id",
		"departure_time", "arrival_time", "duration", "days_of_operation", "classes",
		"is_active", "created_at", "updated_at",
	})
}

func addTrainRow(rows *sqlmock.Rows, id, number string) *sqlmock.Rows {
	now := time.Now()
	classes := []byte(`[{"class_type":"SL","total_seats":100,"fare_per_km":1.5},{"class_type":"3A","total_seats":50,"fare_per_km":2.5}]`)
	return rows.AddRow(
		id, number, "Rajdhani Express", "stn-src", "stn-dst",
		"16:25", "08:15", "15h50m", []byte("{Monday,Wednesday,Friday}"), classes,
		true, now, now,
	)
}

func TestCreateTrain(t *testing.T) {
	repo, mock, cleanup := newTrainRepoTest(t)
	defer cleanup()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery("INSERT INTO trains").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		train := &models.Train{
			TrainNumber:          "12951",
			TrainName:            "Rajdhani Express",
			SourceStationID:      "stn-src",
			DestinationStationID: "stn-dst",
			DepartureTime:        "16:25",
			ArrivalTime:          "08:15",
			Duration:             "15h50m",
			DaysOfOperation:      models.StringArray{"Monday", "Wednesday", "Friday"},
			Classes: models.FareClassList{
				{ClassType: models.ClassSleeper, TotalSeats: 100, FarePerKm: 1.5},
			},
		}
		err := repo.Create(train)
		require.NoError(t, err)
		assert.NotEmpty(t, train.ID)
		assert.True(t, train.IsActive)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO trains").
			WillReturnError(assert.AnError)

		err := repo.Create(&models.Train{TrainNumber: "12951"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create train")
	})
}

func TestGetTrainByID(t *testing.T) {
	repo, mock, cleanup := newTrainRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("FROM trains").
		WithArgs("train-1").
		WillReturnRows(addTrainRow(trainTestRows(), "train-1", "12951"))

	train, err := repo.GetByID("train-1")
	require.NoError(t, err)
	assert.Equal(t, "12951", train.TrainNumber)
	assert.Len(t, train.Classes, 2)
	assert.True(t, train.DaysOfOperation.Contains("Monday"))

	fareClass, ok := train.Classes.Find(models.ClassThirdAC)
	require.True(t, ok)
	assert.Equal(t, 50, fareClass.TotalSeats)
}

func TestUpdateTrain(t *testing.T) {
	t.Run("Rename Only Keeps Other Columns", func(t *testing.T) {
		repo, mock, cleanup := newTrainRepoTest(t)
		defer cleanup()

		name := "Shatabdi Express"

		// Omitted fields must reach the database as SQL NULL so the
		// COALESCE falls through to the stored value. A jsonb "null"
		// here would wipe the classes column.
		mock.ExpectQuery("UPDATE trains").
			WithArgs("train-1", &name, nil, nil, nil, nil, nil).
			WillReturnRows(addTrainRow(trainTestRows(), "train-1", "12951"))

		train, err := repo.Update("train-1", &models.UpdateTrainRequest{TrainName: &name})
		require.NoError(t, err)
		assert.Len(t, train.Classes, 2)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Replaces Classes When Provided", func(t *testing.T) {
		repo, mock, cleanup := newTrainRepoTest(t)
		defer cleanup()

		classesJSON := []byte(`[{"class_type":"SL","total_seats":120,"fare_per_km":1.5}]`)

		mock.ExpectQuery("UPDATE trains").
			WithArgs("train-1", nil, nil, nil, nil, nil, classesJSON).
			WillReturnRows(addTrainRow(trainTestRows(), "train-1", "12951"))

		_, err := repo.Update("train-1", &models.UpdateTrainRequest{
			Classes: []models.FareClass{
				{ClassType: models.ClassSleeper, TotalSeats: 120, FarePerKm: 1.5},
			},
		})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Train", func(t *testing.T) {
		repo, mock, cleanup := newTrainRepoTest(t)
		defer cleanup()

		mock.ExpectQuery("UPDATE trains").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Update("missing", &models.UpdateTrainRequest{})
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestDeactivateTrain(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock, cleanup := newTrainRepoTest(t)
		defer cleanup()

		mock.ExpectExec("UPDATE trains").
			WithArgs("train-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Deactivate("train-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Train", func(t *testing.T) {
		repo, mock, cleanup := newTrainRepoTest(t)
		defer cleanup()

		mock.ExpectExec("UPDATE trains").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Deactivate("missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestSearchTrains(t *testing.T) {
	// 2026-03-02 is a Monday
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Filters By Weekday", func(t *testing.T) {
		repo, mock, cleanup := newTrainRepoTest(t)
		defer cleanup()

		mock.ExpectQuery("SELECT COUNT").
			WithArgs("stn-src", "stn-dst", "Monday").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("ORDER BY departure_time ASC").
			WithArgs("stn-src", "stn-dst", "Monday", 10, 0).
			WillReturnRows(addTrainRow(trainTestRows(), "train-1", "12951"))

		trains, total, err := repo.Search(models.TrainSearchQuery{
			SourceStationID:      "stn-src",
			DestinationStationID: "stn-dst",
			Date:                 date,
			Page:                 1,
			Limit:                10,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, trains, 1)
		assert.Equal(t, "12951", trains[0].TrainNumber)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Filters By Class", func(t *testing.T) {
		repo, mock, cleanup := newTrainRepoTest(t)
		defer cleanup()

		classFilter := `[{"class_type":"3A"}]`

		mock.ExpectQuery("SELECT COUNT").
			WithArgs("stn-src", "stn-dst", "Monday", classFilter).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("ORDER BY departure_time ASC").
			WithArgs("stn-src", "stn-dst", "Monday", classFilter, 10, 0).
			WillReturnRows(addTrainRow(trainTestRows(), "train-1", "12951"))

		_, total, err := repo.Search(models.TrainSearchQuery{
			SourceStationID:      "stn-src",
			DestinationStationID: "stn-dst",
			Date:                 date,
			ClassType:            models.ClassThirdAC,
			Page:                 1,
			Limit:                10,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
