package session

import "time"

// Coordinate is a geocoded location. Only a Geocoder produces one.
type Coordinate struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name"`
}

// LatLng is a bare device position
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlannedRoute is the current route of a session.
// DistanceMeters, DurationSeconds, Instructions and Path stay nil until the
// router reports success; nil means "not computed yet", not zero.
type PlannedRoute struct {
	Start           Coordinate   `json:"start"`
	End             Coordinate   `json:"end"`
	StartName       string       `json:"start_name"`
	EndName         string       `json:"end_name"`
	CreatedAt       time.Time    `json:"created_at"`
	DistanceMeters  *float64     `json:"distance_meters,omitempty"`
	DurationSeconds *float64     `json:"duration_seconds,omitempty"`
	Instructions    []string     `json:"instructions,omitempty"`
	Path            []Coordinate `json:"path,omitempty"`
}

// Computed reports whether the router has filled the summary fields
func (r *PlannedRoute) Computed() bool {
	return r != nil && r.DistanceMeters != nil && r.DurationSeconds != nil
}

func (r *PlannedRoute) clone() *PlannedRoute {
	if r == nil {
		return nil
	}
	cp := *r
	if r.DistanceMeters != nil {
		d := *r.DistanceMeters
		cp.DistanceMeters = &d
	}
	if r.DurationSeconds != nil {
		d := *r.DurationSeconds
		cp.DurationSeconds = &d
	}
	cp.Instructions = append([]string(nil), r.Instructions...)
	cp.Path = append([]Coordinate(nil), r.Path...)
	return &cp
}

// Status is the lifecycle state of a trip session
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlanning Status = "planning"
	StatusPlanned  Status = "planned"
	StatusActive   Status = "active"
)

// TripSession is the single live trip of a page instance.
// ID is only set once the trip has been started.
type TripSession struct {
	ID     string        `json:"id,omitempty"`
	Route  *PlannedRoute `json:"route,omitempty"`
	Status Status        `json:"status"`
}

// LiveProgress is recomputed on every position update and never persisted.
// PercentKnown is false when the planned distance is zero or unknown; Percent
// then carries the last known value.
type LiveProgress struct {
	Position        LatLng  `json:"position"`
	RemainingMeters float64 `json:"remaining_meters"`
	Percent         float64 `json:"percent"`
	PercentKnown    bool    `json:"percent_known"`
}

// View is a read-only copy of the controller state
type View struct {
	Session          TripSession   `json:"session"`
	TripStartEnabled bool          `json:"trip_start_enabled"`
	Tracking         bool          `json:"tracking"`
	Progress         *LiveProgress `json:"progress,omitempty"`
}

// LocateResult is the outcome of a one-shot position read
type LocateResult struct {
	Position LatLng `json:"position"`
	Label    string `json:"label"`
	Resolved bool   `json:"resolved"`
}
