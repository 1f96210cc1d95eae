package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/railsewa/railway-reservation-backend/internal/models"
)

// StationRepository handles database operations for the stations table.
// Stations are never hard-deleted; deactivation preserves referential
// integrity with historical bookings.
type StationRepository struct {
	db DB
}

// NewStationRepository creates a new StationRepository
func NewStationRepository(db DB) *StationRepository {
	return &StationRepository{db: db}
}

// Create inserts a new station
func (r *StationRepository) Create(station *models.Station) error {
	query := `
		INSERT INTO stations (id, station_code, station_name, city, state, pincode, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING created_at, updated_at
	`

	if station.ID == "" {
		station.ID = uuid.New().String()
	}
	station.IsActive = true

	err := r.db.QueryRow(
		query,
		station.ID, station.StationCode, station.StationName,
		station.City, station.State, station.Pincode,
	).Scan(&station.CreatedAt, &station.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create station: %w", err)
	}
	return nil
}

// GetByID retrieves a station by ID
func (r *StationRepository) GetByID(stationID string) (*models.Station, error) {
	query := `
		SELECT id, station_code, station_name, city, state, pincode, is_active, created_at, updated_at
		FROM stations
		WHERE id = $1
	`

	var station models.Station
	if err := r.db.Get(&station, query, stationID); err != nil {
		return nil, err
	}
	return &station, nil
}

// GetByCode retrieves a station by its station code
func (r *StationRepository) GetByCode(code string) (*models.Station, error) {
	query := `
		SELECT id, station_code, station_name, city, state, pincode, is_active, created_at, updated_at
		FROM stations
		WHERE station_code = $1
	`

	var station models.Station
	if err := r.db.Get(&station, query, code); err != nil {
		return nil, err
	}
	return &station, nil
}

// Update updates a station's descriptive fields
func (r *StationRepository) Update(stationID string, req *models.UpdateStationRequest) (*models.Station, error) {
	query := `
		UPDATE stations
		SET station_name = COALESCE($2, station_name),
		    city = COALESCE($3, city),
		    state = COALESCE($4, state),
		    pincode = COALESCE($5, pincode),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, station_code, station_name, city, state, pincode, is_active, created_at, updated_at
	`

	var station models.Station
	err := r.db.Get(&station, query, stationID, req.StationName, req.City, req.State, req.Pincode)
	if err != nil {
		return nil, err
	}
	return &station, nil
}

// Deactivate soft-deletes a station
func (r *StationRepository) Deactivate(stationID string) error {
	query := `
		UPDATE stations
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, stationID)
	if err != nil {
		return fmt.Errorf("failed to deactivate station: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("station %s: %w", stationID, sql.ErrNoRows)
	}
	return nil
}

// List retrieves stations with optional city/state/active filters
func (r *StationRepository) List(city, state string, activeOnly bool, page, limit int) ([]models.Station, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if city != "" {
		where += fmt.Sprintf(" AND city = $%d", argIdx)
		args = append(args, city)
		argIdx++
	}
	if state != "" {
		where += fmt.Sprintf(" AND state = $%d", argIdx)
		args = append(args, state)
		argIdx++
	}
	if activeOnly {
		where += " AND is_active = TRUE"
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM stations " + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count stations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, station_code, station_name, city, state, pincode, is_active, created_at, updated_at
		FROM stations
		%s
		ORDER BY station_code ASC
		LIMIT $%d OFFSET $%d
	`, where, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	var stations []models.Station
	if err := r.db.Select(&stations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list stations: %w", err)
	}

	return stations, total, nil
}
