package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anujitha615/WayFindersHub/internal/models"
	"github.com/anujitha615/WayFindersHub/internal/notify"
	"github.com/anujitha615/WayFindersHub/internal/position"
	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/stream"
)

var (
	ErrPageNotFound     = errors.New("page not found")
	ErrInvalidPosition  = errors.New("a position needs lat and lng, or an error code")
	ErrUnknownErrorCode = errors.New("unknown position error code")
)

// PlannerConfig holds what every page's controller is built from
type PlannerConfig struct {
	Geocoder session.Geocoder
	Router   session.Router
	Stream   stream.Broadcaster
	// Notifiers receive every page's notifications besides the page itself
	Notifiers []session.Notifier
	// Pages idle for longer than TTL are closed by Run. Zero disables eviction.
	TTL time.Duration
}

// PlannerService keeps one trip session controller per open page
type PlannerService struct {
	cfg PlannerConfig
	now func() time.Time

	mu    sync.Mutex
	pages map[string]*page
}

type page struct {
	controller *session.Controller
	feed       *position.Feed
	lastUsed   time.Time
}

// NewPlannerService creates an empty page registry
func NewPlannerService(cfg PlannerConfig) *PlannerService {
	return &PlannerService{
		cfg:   cfg,
		now:   time.Now,
		pages: make(map[string]*page),
	}
}

// CreatePage opens a new page instance in the Idle state and returns its id
func (s *PlannerService) CreatePage() string {
	id := uuid.NewString()
	renderer := stream.NewRenderer(s.cfg.Stream, id)

	notifiers := notify.Multi{
		notify.NewStream(s.cfg.Stream, id),
		notify.Log{Prefix: "page " + id[:8] + " "},
	}
	notifiers = append(notifiers, s.cfg.Notifiers...)

	feed := position.NewFeed(renderer.RequestLocation).OnWatch(renderer.WatchStarted, renderer.WatchStopped)
	p := &page{
		controller: session.NewController(session.Deps{
			Geocoder:  s.cfg.Geocoder,
			Router:    s.cfg.Router,
			Positions: feed,
			Notifier:  notifiers,
			Renderer:  renderer,
		}),
		feed:     feed,
		lastUsed: s.now(),
	}

	s.mu.Lock()
	s.pages[id] = p
	s.mu.Unlock()

	log.Printf("planner: page %s opened", id)
	return id
}

// Plan plans a route on a page
func (s *PlannerService) Plan(ctx context.Context, pageID, start, end string) (session.PlannedRoute, error) {
	p, err := s.get(pageID)
	if err != nil {
		return session.PlannedRoute{}, err
	}
	return p.controller.Plan(ctx, start, end)
}

// StartTrip starts live tracking on a page
func (s *PlannerService) StartTrip(ctx context.Context, pageID string) (string, error) {
	p, err := s.get(pageID)
	if err != nil {
		return "", err
	}
	return p.controller.StartTrip(ctx)
}

// Clear resets a page to Idle
func (s *PlannerService) Clear(pageID string) error {
	p, err := s.get(pageID)
	if err != nil {
		return err
	}
	p.controller.Clear()
	return nil
}

// Locate reads the page's position once and names it
func (s *PlannerService) Locate(ctx context.Context, pageID string) (session.LocateResult, error) {
	p, err := s.get(pageID)
	if err != nil {
		return session.LocateResult{}, err
	}
	return p.controller.Locate(ctx)
}

// View returns the state of a page
func (s *PlannerService) View(pageID string) (session.View, error) {
	p, err := s.get(pageID)
	if err != nil {
		return session.View{}, err
	}
	return p.controller.View(), nil
}

// NeedsConfirmation reports whether clearing the page would discard anything
func (s *PlannerService) NeedsConfirmation(pageID string) (bool, error) {
	p, err := s.get(pageID)
	if err != nil {
		return false, err
	}
	return p.controller.NeedsConfirmation(), nil
}

// CurrentRoute returns the page's computed route. ok is false while no route
// has been computed.
func (s *PlannerService) CurrentRoute(pageID string) (route session.PlannedRoute, ok bool, err error) {
	p, err := s.get(pageID)
	if err != nil {
		return session.PlannedRoute{}, false, err
	}
	route, ok = p.controller.CurrentRoute()
	return route, ok, nil
}

// ReportPosition feeds a fix or a geolocation failure from the page into its
// watch subscriptions and pending reads
func (s *PlannerService) ReportPosition(pageID string, report models.PositionReport) error {
	p, err := s.get(pageID)
	if err != nil {
		return err
	}

	if report.ErrorCode != "" {
		code, ok := positionErrorCodes[report.ErrorCode]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownErrorCode, report.ErrorCode)
		}
		p.feed.PublishError(&session.PositionError{Code: code, Message: report.Message})
		return nil
	}
	if report.Lat == nil || report.Lng == nil {
		return ErrInvalidPosition
	}
	return p.feed.Publish(session.LatLng{Lat: *report.Lat, Lng: *report.Lng})
}

var positionErrorCodes = map[string]session.PositionErrorCode{
	"unsupported":       session.PositionUnsupported,
	"permission_denied": session.PositionPermissionDenied,
	"unavailable":       session.PositionUnavailable,
	"timeout":           session.PositionTimeout,
}

// ClosePage releases a page's pending plan and live subscription and forgets it
func (s *PlannerService) ClosePage(pageID string) error {
	s.mu.Lock()
	p, ok := s.pages[pageID]
	delete(s.pages, pageID)
	s.mu.Unlock()
	if !ok {
		return ErrPageNotFound
	}
	p.controller.Close()
	log.Printf("planner: page %s closed", pageID)
	return nil
}

// Pages reports the number of open pages
func (s *PlannerService) Pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Run evicts idle pages until ctx is done, then closes all pages
func (s *PlannerService) Run(ctx context.Context) {
	interval := s.cfg.TTL / 4
	if interval <= 0 {
		<-ctx.Done()
		s.closeAll()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// EvictIdle closes pages that have not been used within the TTL
func (s *PlannerService) EvictIdle() int {
	if s.cfg.TTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.TTL)

	s.mu.Lock()
	var idle []*page
	for id, p := range s.pages {
		if p.lastUsed.Before(cutoff) {
			idle = append(idle, p)
			delete(s.pages, id)
		}
	}
	s.mu.Unlock()

	for _, p := range idle {
		p.controller.Close()
	}
	if len(idle) > 0 {
		log.Printf("planner: evicted %d idle pages", len(idle))
	}
	return len(idle)
}

func (s *PlannerService) closeAll() {
	s.mu.Lock()
	pages := s.pages
	s.pages = make(map[string]*page)
	s.mu.Unlock()

	for _, p := range pages {
		p.controller.Close()
	}
}

func (s *PlannerService) get(pageID string) (*page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[pageID]
	if !ok {
		return nil, ErrPageNotFound
	}
	p.lastUsed = s.now()
	return p, nil
}
