package models

import (
	"strings"
	"time"
)

// SavedTrip is a planned route a user stored under a name
type SavedTrip struct {
	ID     int64  `json:"id" db:"id"`
	UserID int64  `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`

	// Endpoints
	StartName string  `json:"start_name" db:"start_name"`
	EndName   string  `json:"end_name" db:"end_name"`
	StartLat  float64 `json:"start_lat" db:"start_lat"`
	StartLng  float64 `json:"start_lng" db:"start_lng"`
	EndLat    float64 `json:"end_lat" db:"end_lat"`
	EndLng    float64 `json:"end_lng" db:"end_lng"`

	// Route summary, nil when the route was never computed
	DistanceMeters  *float64 `json:"distance_meters,omitempty" db:"distance_meters"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty" db:"duration_seconds"`
	Instructions    []string `json:"instructions" db:"-"`
	Path            []LatLng `json:"path" db:"-"`

	IsFavorite bool      `json:"is_favorite" db:"is_favorite"`
	PlannedAt  time.Time `json:"planned_at" db:"planned_at"`
	SavedAt    time.Time `json:"saved_at" db:"saved_at"`

	// Display texts, filled by the service
	DistanceText string `json:"distance_text,omitempty" db:"-"`
	DurationText string `json:"duration_text,omitempty" db:"-"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultTripName suggests "<start> to <end>" from the first part of each
// display name, e.g. "Fort Kochi to Cherai Beach"
func DefaultTripName(startName, endName string) string {
	return firstPart(startName) + " to " + firstPart(endName)
}

func firstPart(displayName string) string {
	part, _, _ := strings.Cut(displayName, ",")
	return strings.TrimSpace(part)
}
