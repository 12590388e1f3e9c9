package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/models"
)

const savedTripColumns = `id, user_id, name, start_name, end_name,
	start_lat, start_lng, end_lat, end_lng,
	distance_meters, duration_seconds, instructions, path,
	is_favorite, planned_at, saved_at`

// SavedTripRepository handles database operations for saved trips
type SavedTripRepository struct {
	db *sql.DB
}

// NewSavedTripRepository creates a new saved trip repository
func NewSavedTripRepository(db *sql.DB) *SavedTripRepository {
	return &SavedTripRepository{db: db}
}

// Create inserts a trip and sets its ID. A name the user already used
// returns ErrDuplicate.
func (r *SavedTripRepository) Create(trip *models.SavedTrip) error {
	instructions, err := json.Marshal(nonNil(trip.Instructions))
	if err != nil {
		return fmt.Errorf("failed to encode instructions: %w", err)
	}
	path := trip.Path
	if path == nil {
		path = []models.LatLng{}
	}
	pathJSON, err := json.Marshal(path)
	if err != nil {
		return fmt.Errorf("failed to encode path: %w", err)
	}
	if trip.SavedAt.IsZero() {
		trip.SavedAt = time.Now().UTC()
	}

	result, err := r.db.Exec(`INSERT INTO saved_trips (
		user_id, name, start_name, end_name,
		start_lat, start_lng, end_lat, end_lng,
		distance_meters, duration_seconds, instructions, path,
		is_favorite, planned_at, saved_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.UserID, trip.Name, trip.StartName, trip.EndName,
		trip.StartLat, trip.StartLng, trip.EndLat, trip.EndLng,
		trip.DistanceMeters, trip.DurationSeconds, string(instructions), string(pathJSON),
		trip.IsFavorite, trip.PlannedAt, trip.SavedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save trip: %w", err)
	}

	trip.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get trip id: %w", err)
	}
	return nil
}

// NameExists reports whether the user already has a trip with this name
func (r *SavedTripRepository) NameExists(userID int64, name string) (bool, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM saved_trips WHERE user_id = ? AND name = ?", userID, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check trip name: %w", err)
	}
	return n > 0, nil
}

// List returns a page of the user's trips, newest first, and the total count
func (r *SavedTripRepository) List(userID int64, filter models.SavedTripFilter) ([]models.SavedTrip, int64, error) {
	filter.Normalize()

	where := "WHERE user_id = ?"
	args := []interface{}{userID}
	if filter.FavoritesOnly {
		where += " AND is_favorite = 1"
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM saved_trips "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	query := "SELECT " + savedTripColumns + " FROM saved_trips " + where + " ORDER BY saved_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips := []models.SavedTrip{}
	for rows.Next() {
		trip, err := scanSavedTrip(rows)
		if err != nil {
			return nil, 0, err
		}
		trips = append(trips, *trip)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, total, nil
}

// GetByID retrieves one of the user's trips
func (r *SavedTripRepository) GetByID(userID, id int64) (*models.SavedTrip, error) {
	row := r.db.QueryRow("SELECT "+savedTripColumns+" FROM saved_trips WHERE id = ? AND user_id = ?", id, userID)
	trip, err := scanSavedTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return trip, err
}

// Delete removes one of the user's trips
func (r *SavedTripRepository) Delete(userID, id int64) error {
	result, err := r.db.Exec("DELETE FROM saved_trips WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSavedTrip(s scanner) (*models.SavedTrip, error) {
	var t models.SavedTrip
	var distance, duration sql.NullFloat64
	var instructions, path string

	err := s.Scan(
		&t.ID, &t.UserID, &t.Name, &t.StartName, &t.EndName,
		&t.StartLat, &t.StartLng, &t.EndLat, &t.EndLng,
		&distance, &duration, &instructions, &path,
		&t.IsFavorite, &t.PlannedAt, &t.SavedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan trip: %w", err)
	}

	if distance.Valid {
		t.DistanceMeters = &distance.Float64
	}
	if duration.Valid {
		t.DurationSeconds = &duration.Float64
	}
	if err := json.Unmarshal([]byte(instructions), &t.Instructions); err != nil {
		return nil, fmt.Errorf("failed to decode instructions of trip %d: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(path), &t.Path); err != nil {
		return nil, fmt.Errorf("failed to decode path of trip %d: %w", t.ID, err)
	}
	return &t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
