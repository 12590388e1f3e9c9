package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/anujitha615/WayFindersHub/internal/spatial"
)

const (
	msgResolutionFailed = "Could not find one or both locations. Please check your addresses and try again."
	msgRoutingFailed    = "Could not calculate route. Please check your start and destination."
	msgEmptyAddress     = "Please enter both a starting point and a destination."
	msgLocationPrefix   = "Error getting your location: "
)

// Deps are the collaborators of a Controller. Geocoder, Router and Positions
// are required; the rest fall back to no-op or default implementations.
type Deps struct {
	Geocoder  Geocoder
	Router    Router
	Positions PositionSource
	Notifier  Notifier
	Renderer  Renderer
	IDs       IDGenerator
	Clock     Clock
	// Distance measures the remaining distance of a live trip. Defaults to
	// the great-circle distance to the destination.
	Distance DistanceFunc
}

// DistanceFunc returns the distance in meters from a device position to a destination
type DistanceFunc func(from LatLng, to Coordinate) float64

func greatCircle(from LatLng, to Coordinate) float64 {
	return spatial.HaversineDistance(from.Lat, from.Lng, to.Lat, to.Lng)
}

// Controller owns the trip session of one page instance.
//
// All state changes happen under mu. Provider calls run without the lock;
// their completions re-check the plan generation or the subscription token
// and are dropped when a newer plan, trip or reset has happened meanwhile.
type Controller struct {
	geocoder  Geocoder
	router    Router
	positions PositionSource
	notifier  Notifier
	renderer  Renderer
	ids       IDGenerator
	clock     Clock
	distance  DistanceFunc

	mu           sync.Mutex
	session      TripSession
	startEnabled bool
	progress     *LiveProgress
	generation   uint64
	cancelPlan   context.CancelFunc
	watch        *subscription
	watchSeq     uint64
}

type subscription struct {
	token  uint64
	cancel context.CancelFunc
}

// NewController creates a controller in the Idle state
func NewController(deps Deps) *Controller {
	c := &Controller{
		geocoder:  deps.Geocoder,
		router:    deps.Router,
		positions: deps.Positions,
		notifier:  deps.Notifier,
		renderer:  deps.Renderer,
		ids:       deps.IDs,
		clock:     deps.Clock,
		distance:  deps.Distance,
		session:   TripSession{Status: StatusIdle},
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.renderer == nil {
		c.renderer = nopRenderer{}
	}
	if c.ids == nil {
		c.ids = TripIDs{}
	}
	if c.clock == nil {
		c.clock = SystemClock{}
	}
	if c.distance == nil {
		c.distance = greatCircle
	}
	return c
}

// Plan resolves both addresses, then requests a route between them.
//
// Any previous pending plan, drawn route and live subscription are discarded
// before the first lookup is issued. A plan that is overtaken by another Plan
// or by Clear returns ErrSuperseded and leaves the newer state untouched.
func (c *Controller) Plan(ctx context.Context, start, end string) (PlannedRoute, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		c.notifier.Notify(msgEmptyAddress, SeverityWarning)
		return PlannedRoute{}, ErrEmptyAddress
	}

	c.mu.Lock()
	gen := c.beginCycleLocked()
	planCtx, cancel := context.WithCancel(ctx)
	c.cancelPlan = cancel
	c.mu.Unlock()
	defer cancel()

	from, to, err := ResolveAddresses(planCtx, c.geocoder, start, end)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return PlannedRoute{}, ErrSuperseded
	}
	if err != nil {
		c.failLocked()
		log.Printf("trip planning: %v (start=%q end=%q)", describeResolution(err), start, end)
		c.notifier.Notify(msgResolutionFailed, SeverityError)
		c.mu.Unlock()
		return PlannedRoute{}, err
	}

	c.session.Route = &PlannedRoute{
		Start:     from,
		End:       to,
		StartName: from.DisplayName,
		EndName:   to.DisplayName,
		CreatedAt: c.clock.Now(),
	}
	c.renderer.ShowEndpoints(from, to)
	c.mu.Unlock()

	result, err := c.router.Route(planCtx, from, to)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return PlannedRoute{}, ErrSuperseded
	}
	if err != nil {
		log.Printf("trip planning: route request failed: %v", err)
		c.failLocked()
		c.notifier.Notify(msgRoutingFailed, SeverityError)
		return PlannedRoute{}, &RoutingError{Err: err}
	}

	route := c.session.Route
	distance, duration := result.DistanceMeters, result.DurationSeconds
	route.DistanceMeters = &distance
	route.DurationSeconds = &duration
	route.Instructions = append([]string{}, result.Instructions...)
	route.Path = append([]Coordinate{}, result.Path...)

	c.cancelPlan = nil
	c.session.Status = StatusPlanned
	c.startEnabled = true
	c.renderer.ShowRoute(*route.clone())
	c.renderer.SetTripStartEnabled(true)
	c.notifier.Notify(fmt.Sprintf("Route found: %s, about %s", spatial.FormatKm(distance), spatial.FormatDuration(duration)), SeveritySuccess)

	return *route.clone(), nil
}

// StartTrip assigns a trip id and starts live tracking against the planned route.
// A trip that is already being tracked is replaced: its subscription is
// cancelled before the new one is opened.
func (c *Controller) StartTrip(ctx context.Context) (string, error) {
	c.mu.Lock()
	if !c.startEnabled || !c.session.Route.Computed() {
		c.mu.Unlock()
		return "", ErrRouteNotReady
	}
	c.stopWatchLocked()
	c.watchSeq++
	token := c.watchSeq
	gen := c.generation

	// the subscription outlives the request that started it
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.watch = &subscription{token: token, cancel: cancel}
	c.mu.Unlock()

	readings, err := c.positions.Watch(watchCtx, trackingOptions)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watch == nil || c.watch.token != token || gen != c.generation {
		cancel()
		return "", ErrSuperseded
	}
	if err != nil {
		cancel()
		c.watch = nil
		c.session.ID = ""
		c.notifier.Notify(msgLocationPrefix+err.Error(), SeverityError)
		return "", err
	}

	id := c.ids.New()
	c.session.ID = id
	c.session.Status = StatusActive
	c.progress = &LiveProgress{}
	c.renderer.ShowTripID(id)
	c.notifier.Notify(fmt.Sprintf("Trip %s started", id), SeverityInfo)

	go c.consume(watchCtx, token, readings)
	return id, nil
}

// Clear returns the session to Idle. It is safe to call at any time and any
// number of times.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if c.cancelPlan != nil {
		c.cancelPlan()
		c.cancelPlan = nil
	}
	c.stopWatchLocked()
	c.session = TripSession{Status: StatusIdle}
	c.startEnabled = false
	c.progress = nil
	c.renderer.Reset()
}

// Close releases the pending plan and the live subscription without touching
// the rendered state. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if c.cancelPlan != nil {
		c.cancelPlan()
		c.cancelPlan = nil
	}
	c.stopWatchLocked()
}

// Locate reads the device position once and names it by reverse geocoding.
// When no name can be found the label falls back to the raw coordinates.
func (c *Controller) Locate(ctx context.Context) (LocateResult, error) {
	pos, err := c.positions.Read(ctx, locateOptions)
	if err != nil {
		c.notifier.Notify(msgLocationPrefix+err.Error(), SeverityError)
		return LocateResult{}, err
	}

	name, err := c.geocoder.Reverse(ctx, pos.Lat, pos.Lng)
	if err != nil || name == "" {
		if err != nil && !errors.Is(err, ErrNoMatch) {
			log.Printf("locate: reverse geocoding failed: %v", err)
		}
		return LocateResult{Position: pos, Label: spatial.FormatLatLng(pos.Lat, pos.Lng)}, nil
	}
	return LocateResult{Position: pos, Label: name, Resolved: true}, nil
}

// View returns a copy of the current state
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Session: TripSession{
			ID:     c.session.ID,
			Route:  c.session.Route.clone(),
			Status: c.session.Status,
		},
		TripStartEnabled: c.startEnabled,
		Tracking:         c.watch != nil,
	}
	if c.progress != nil {
		p := *c.progress
		v.Progress = &p
	}
	return v
}

// CurrentRoute returns the planned route once it has been computed
func (c *Controller) CurrentRoute() (PlannedRoute, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.Route.Computed() {
		return PlannedRoute{}, false
	}
	return *c.session.Route.clone(), true
}

// NeedsConfirmation reports whether clearing would discard a route, a pending
// plan or a live trip
func (c *Controller) NeedsConfirmation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Route != nil || c.cancelPlan != nil || c.watch != nil
}

// beginCycleLocked discards everything belonging to the previous plan and
// moves the session to Planning. It returns the new generation.
func (c *Controller) beginCycleLocked() uint64 {
	c.generation++
	if c.cancelPlan != nil {
		c.cancelPlan()
		c.cancelPlan = nil
	}
	c.stopWatchLocked()
	c.renderer.ClearRoute()
	c.renderer.SetTripStartEnabled(false)

	c.session = TripSession{Status: StatusPlanning}
	c.startEnabled = false
	c.progress = nil
	return c.generation
}

func (c *Controller) failLocked() {
	c.cancelPlan = nil
	c.session = TripSession{Status: StatusIdle}
	c.startEnabled = false
	c.renderer.ClearRoute()
}

func (c *Controller) stopWatchLocked() {
	if c.watch == nil {
		return
	}
	c.watch.cancel()
	c.watch = nil
	if c.session.Status == StatusActive {
		c.session.Status = StatusPlanned
	}
}

func (c *Controller) consume(ctx context.Context, token uint64, readings <-chan PositionReading) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-readings:
			if !ok {
				return
			}
			c.handleReading(token, r)
		}
	}
}

func (c *Controller) handleReading(token uint64, r PositionReading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watch == nil || c.watch.token != token {
		return
	}
	if r.Err != nil {
		c.notifier.Notify(msgLocationPrefix+r.Err.Error(), SeverityError)
		return
	}

	route := c.session.Route
	remaining := c.distance(r.Position, route.End)
	lp := LiveProgress{Position: r.Position, RemainingMeters: remaining}
	if pct, ok := Progress(remaining, route.DistanceMeters); ok {
		lp.Percent = pct
		lp.PercentKnown = true
	} else if c.progress != nil {
		lp.Percent = c.progress.Percent
	}

	c.progress = &lp
	c.renderer.ShowPosition(lp)
}

func describeResolution(err error) string {
	var re *ResolutionError
	if !errors.As(err, &re) {
		return err.Error()
	}
	switch {
	case re.StartFailed() && re.EndFailed():
		return fmt.Sprintf("both lookups failed: %v; %v", re.Start, re.End)
	case re.StartFailed():
		return fmt.Sprintf("start lookup failed: %v", re.Start)
	default:
		return fmt.Sprintf("end lookup failed: %v", re.End)
	}
}
