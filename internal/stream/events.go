package stream

import (
	"encoding/json"
	"log"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/spatial"
)

// Event types sent to the page
const (
	EventRouteCleared    = "route_cleared"
	EventEndpoints       = "endpoints"
	EventRoute           = "route"
	EventTripStart       = "trip_start"
	EventTripID          = "trip_id"
	EventPosition        = "position"
	EventReset           = "reset"
	EventNotification    = "notification"
	EventLocateRequested = "locate_requested"
	EventWatchStarted    = "watch_started"
	EventWatchStopped    = "watch_stopped"
)

// pathTolerance is how far, in meters, a simplified route may stray from the
// provider's geometry
const pathTolerance = 5.0

type Event struct {
	Type string      `json:"type"`
	Time time.Time   `json:"time"`
	Data interface{} `json:"data,omitempty"`
}

type EndpointsData struct {
	Start  session.Coordinate `json:"start"`
	End    session.Coordinate `json:"end"`
	Center session.LatLng     `json:"center"`
	Bounds spatial.Bounds     `json:"bounds"`
}

type RouteData struct {
	Route        session.PlannedRoute `json:"route"`
	Path         []session.LatLng     `json:"path"`
	Bounds       *spatial.Bounds      `json:"bounds,omitempty"`
	DistanceText string               `json:"distance_text"`
	DurationText string               `json:"duration_text"`
}

type PositionData struct {
	session.LiveProgress
	RemainingText string `json:"remaining_text"`
	// the page recenters on the position and keeps its zoom
	Recenter bool `json:"recenter"`
}

type NotificationData struct {
	Message  string           `json:"message"`
	Severity session.Severity `json:"severity"`
}

// PositionOptionsData carries the geolocation options of a locate request or
// a watch
type PositionOptionsData struct {
	HighAccuracy bool  `json:"high_accuracy"`
	TimeoutMs    int64 `json:"timeout_ms"`
	MaxAgeMs     int64 `json:"max_age_ms"`
}

// Broadcaster delivers encoded events to the clients of a page
type Broadcaster interface {
	Broadcast(pageID string, payload []byte)
}

// Publish encodes an event and broadcasts it to a page
func Publish(b Broadcaster, pageID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Time: time.Now().UTC(), Data: data})
	if err != nil {
		log.Printf("stream: failed to encode %s event: %v", eventType, err)
		return
	}
	b.Broadcast(pageID, payload)
}

func newPositionOptionsData(opts session.PositionOptions) PositionOptionsData {
	return PositionOptionsData{
		HighAccuracy: opts.HighAccuracy,
		TimeoutMs:    opts.Timeout.Milliseconds(),
		MaxAgeMs:     opts.MaxCacheAge.Milliseconds(),
	}
}

func newRouteData(route session.PlannedRoute) RouteData {
	data := RouteData{Route: route}
	if route.DistanceMeters != nil {
		data.DistanceText = spatial.FormatKm(*route.DistanceMeters)
	}
	if route.DurationSeconds != nil {
		data.DurationText = spatial.FormatDuration(*route.DurationSeconds)
	}

	points := make([]spatial.Point, 0, len(route.Path))
	for _, c := range route.Path {
		points = append(points, spatial.Point{Lat: c.Lat, Lon: c.Lng})
	}
	if b, ok := spatial.BoundingBox(points); ok {
		data.Bounds = &b
	}
	simplified := spatial.SimplifyPath(points, pathTolerance)
	data.Path = make([]session.LatLng, 0, len(simplified))
	for _, p := range simplified {
		data.Path = append(data.Path, session.LatLng{Lat: p.Lat, Lng: p.Lon})
	}
	// the full geometry is already carried by Path
	data.Route.Path = nil
	return data
}

func newEndpointsData(start, end session.Coordinate) EndpointsData {
	lat, lng := spatial.Midpoint(start.Lat, start.Lng, end.Lat, end.Lng)
	bounds, _ := spatial.BoundingBox([]spatial.Point{{Lat: start.Lat, Lon: start.Lng}, {Lat: end.Lat, Lon: end.Lng}})
	return EndpointsData{
		Start:  start,
		End:    end,
		Center: session.LatLng{Lat: lat, Lng: lng},
		Bounds: bounds,
	}
}
