package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/railsewa/railway-reservation-backend/internal/models"
)

// TrainRepository handles database operations for the trains table
type TrainRepository struct {
	db DB
}

// NewTrainRepository creates a new TrainRepository
func NewTrainRepository(db DB) *TrainRepository {
	return &TrainRepository{db: db}
}

const trainColumns = `
	id, train_number, train_name, source_station_id, destination_station_id,
	departure_time, arrival_time, duration, days_of_operation, classes,
	is_active, created_at, updated_at
`

// Create inserts a new train
func (r *TrainRepository) Create(train *models.Train) error {
	query := `
		INSERT INTO trains (
			id, train_number, train_name, source_station_id, destination_station_id,
			departure_time, arrival_time, duration, days_of_operation, classes, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		RETURNING created_at, updated_at
	`

	if train.ID == "" {
		train.ID = uuid.New().String()
	}
	train.IsActive = true

	err := r.db.QueryRow(
		query,
		train.ID, train.TrainNumber, train.TrainName,
		train.SourceStationID, train.DestinationStationID,
		train.DepartureTime, train.ArrivalTime, train.Duration,
		train.DaysOfOperation, train.Classes,
	).Scan(&train.CreatedAt, &train.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create train: %w", err)
	}
	return nil
}

// GetByID retrieves a train by ID
func (r *TrainRepository) GetByID(trainID string) (*models.Train, error) {
	query := `SELECT` + trainColumns + `FROM trains WHERE id = $1`

	var train models.Train
	if err := r.db.Get(&train, query, trainID); err != nil {
		return nil, err
	}
	return &train, nil
}

// GetByNumber retrieves a train by its train number
func (r *TrainRepository) GetByNumber(number string) (*models.Train, error) {
	query := `SELECT` + trainColumns + `FROM trains WHERE train_number = $1`

	var train models.Train
	if err := r.db.Get(&train, query, number); err != nil {
		return nil, err
	}
	return &train, nil
}

// Update updates a train's mutable fields
func (r *TrainRepository) Update(trainID string, req *models.UpdateTrainRequest) (*models.Train, error) {
	var days models.StringArray
	if len(req.DaysOfOperation) > 0 {
		days = models.StringArray(req.DaysOfOperation)
	}
	var classes models.FareClassList
	if len(req.Classes) > 0 {
		classes = models.FareClassList(req.Classes)
	}

	query := `
		UPDATE trains
		SET train_name = COALESCE($2, train_name),
		    departure_time = COALESCE($3, departure_time),
		    arrival_time = COALESCE($4, arrival_time),
		    duration = COALESCE($5, duration),
		    days_of_operation = COALESCE($6, days_of_operation),
		    classes = COALESCE($7, classes),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING` + trainColumns

	var train models.Train
	err := r.db.Get(&train, query, trainID,
		req.TrainName, req.DepartureTime, req.ArrivalTime, req.Duration, days, classes)
	if err != nil {
		return nil, err
	}
	return &train, nil
}

// Deactivate soft-deletes a train
func (r *TrainRepository) Deactivate(trainID string) error {
	query := `
		UPDATE trains
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, trainID)
	if err != nil {
		return fmt.Errorf("failed to deactivate train: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("train %s: %w", trainID, sql.ErrNoRows)
	}
	return nil
}

// Search finds active trains between two stations operating on the
// weekday of the requested date, sorted by departure time
func (r *TrainRepository) Search(q models.TrainSearchQuery) ([]models.Train, int, error) {
	weekday := q.Date.Weekday().String()

	where := `
		WHERE source_station_id = $1
		  AND destination_station_id = $2
		  AND is_active = TRUE
		  AND $3 = ANY(days_of_operation)`
	args := []interface{}{q.SourceStationID, q.DestinationStationID, weekday}
	argIdx := 4

	if q.ClassType != "" {
		filter, err := json.Marshal([]map[string]models.ClassType{{"class_type": q.ClassType}})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to build class filter: %w", err)
		}
		where += fmt.Sprintf(" AND classes @> $%d::jsonb", argIdx)
		args = append(args, string(filter))
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM trains " + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count trains: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM trains
		%s
		ORDER BY departure_time ASC
		LIMIT $%d OFFSET $%d
	`, trainColumns, where, argIdx, argIdx+1)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	var trains []models.Train
	if err := r.db.Select(&trains, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to search trains: %w", err)
	}

	return trains, total, nil
}
