package session

import (
	"context"
	"time"
)

// Geocoder resolves free text to coordinates and coordinates back to names.
// Geocode returns ErrNoMatch when the provider answered but found nothing.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinate, error)
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// RouteResult is what a Router reports on success
type RouteResult struct {
	DistanceMeters  float64
	DurationSeconds float64
	Instructions    []string
	Path            []Coordinate
}

// Router computes a route between two coordinates.
// It returns ErrNoRoute when the provider found no path.
type Router interface {
	Route(ctx context.Context, from, to Coordinate) (RouteResult, error)
}

// PositionOptions mirror the options of a device geolocation request
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxCacheAge  time.Duration
}

// PositionReading is one delivery of a watch subscription: a position or an error
type PositionReading struct {
	Position LatLng
	Err      error
}

// PositionSource reads the device position once or continuously.
// The channel returned by Watch is closed after ctx is done.
type PositionSource interface {
	Read(ctx context.Context, opts PositionOptions) (LatLng, error)
	Watch(ctx context.Context, opts PositionOptions) (<-chan PositionReading, error)
}

// Severity of a user notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier is a fire-and-forget user notification sink
type Notifier interface {
	Notify(message string, severity Severity)
}

// Renderer draws session state. Implementations must not call back into the
// Controller; they are invoked while the controller holds its lock.
type Renderer interface {
	// ClearRoute removes the drawn path, the endpoint markers and the position marker.
	ClearRoute()
	ShowEndpoints(start, end Coordinate)
	ShowRoute(route PlannedRoute)
	SetTripStartEnabled(enabled bool)
	ShowTripID(id string)
	// ShowPosition moves the position marker and recenters the view at the
	// current zoom level.
	ShowPosition(progress LiveProgress)
	// Reset returns route, marker, progress display and form fields to empty.
	Reset()
}

// IDGenerator creates trip identifiers
type IDGenerator interface {
	New() string
}

// Clock abstracts time to keep the controller deterministic in tests
type Clock interface {
	Now() time.Time
}

// watch options used while a trip is active
var trackingOptions = PositionOptions{HighAccuracy: true, Timeout: 5 * time.Second}

// options for the one-shot locate action
var locateOptions = PositionOptions{HighAccuracy: true, Timeout: 10 * time.Second}
