package stream

import (
	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/spatial"
)

// Renderer draws a page's session by sending events to its websocket clients
type Renderer struct {
	out    Broadcaster
	pageID string
}

func NewRenderer(out Broadcaster, pageID string) *Renderer {
	return &Renderer{out: out, pageID: pageID}
}

func (r *Renderer) ClearRoute() {
	Publish(r.out, r.pageID, EventRouteCleared, nil)
}

func (r *Renderer) ShowEndpoints(start, end session.Coordinate) {
	Publish(r.out, r.pageID, EventEndpoints, newEndpointsData(start, end))
}

func (r *Renderer) ShowRoute(route session.PlannedRoute) {
	Publish(r.out, r.pageID, EventRoute, newRouteData(route))
}

func (r *Renderer) SetTripStartEnabled(enabled bool) {
	Publish(r.out, r.pageID, EventTripStart, map[string]bool{"enabled": enabled})
}

func (r *Renderer) ShowTripID(id string) {
	Publish(r.out, r.pageID, EventTripID, map[string]string{"id": id})
}

func (r *Renderer) ShowPosition(p session.LiveProgress) {
	Publish(r.out, r.pageID, EventPosition, PositionData{
		LiveProgress:  p,
		RemainingText: spatial.FormatKm(p.RemainingMeters),
		Recenter:      true,
	})
}

func (r *Renderer) Reset() {
	Publish(r.out, r.pageID, EventReset, nil)
}

// RequestLocation asks the page for a one-shot position fix
func (r *Renderer) RequestLocation(opts session.PositionOptions) {
	Publish(r.out, r.pageID, EventLocateRequested, newPositionOptionsData(opts))
}

// WatchStarted tells the page to start continuous tracking with opts
func (r *Renderer) WatchStarted(opts session.PositionOptions) {
	Publish(r.out, r.pageID, EventWatchStarted, newPositionOptionsData(opts))
}

func (r *Renderer) WatchStopped() {
	Publish(r.out, r.pageID, EventWatchStopped, nil)
}
