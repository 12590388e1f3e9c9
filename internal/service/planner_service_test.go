package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/models"
	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/stream"
	"github.com/redis/go-redis/v9"
)

var (
	fortKochi = session.Coordinate{Lat: 9.9658, Lng: 76.2421, DisplayName: "Fort Kochi, Kochi, Kerala, India"}
	cherai    = session.Coordinate{Lat: 10.1416, Lng: 76.1783, DisplayName: "Cherai Beach, Kochi, Kerala, India"}
)

type stubGeocoder struct {
	places  map[string]session.Coordinate
	reverse string
}

func (g stubGeocoder) Geocode(_ context.Context, address string) (session.Coordinate, error) {
	c, ok := g.places[address]
	if !ok {
		return session.Coordinate{}, session.ErrNoMatch
	}
	return c, nil
}

func (g stubGeocoder) Reverse(context.Context, float64, float64) (string, error) {
	if g.reverse == "" {
		return "", session.ErrNoMatch
	}
	return g.reverse, nil
}

type stubRouter struct{}

func (stubRouter) Route(_ context.Context, from, to session.Coordinate) (session.RouteResult, error) {
	return session.RouteResult{
		DistanceMeters:  28000,
		DurationSeconds: 2700,
		Instructions:    []string{"Head north", "Arrive at your destination"},
		Path:            []session.Coordinate{from, to},
	}, nil
}

func newTestPlanner(t *testing.T) (*PlannerService, *stream.Hub) {
	t.Helper()
	hub := stream.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewPlannerService(PlannerConfig{
		Geocoder: stubGeocoder{
			places: map[string]session.Coordinate{
				"Fort Kochi":   fortKochi,
				"Cherai Beach": cherai,
			},
			reverse: "Vypin, Kochi, Kerala, India",
		},
		Router: stubRouter{},
		Stream: hub,
		TTL:    10 * time.Minute,
	})
	return svc, hub
}

type rawEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// nextEvent returns the next event of the given type sent to the client
func nextEvent(t *testing.T, client *stream.Client, eventType string) json.RawMessage {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case payload := <-client.Send:
			var ev rawEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				t.Fatalf("bad event %s: %v", payload, err)
			}
			if ev.Type == eventType {
				return ev.Data
			}
		case <-timeout:
			t.Fatalf("no %s event received", eventType)
		}
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestPlannerPlanAndTrack(t *testing.T) {
	svc, hub := newTestPlanner(t)
	pageID := svc.CreatePage()
	client := hub.Register(pageID)
	ctx := context.Background()

	route, err := svc.Plan(ctx, pageID, "Fort Kochi", "Cherai Beach")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if route.DistanceMeters == nil || *route.DistanceMeters != 28000 {
		t.Fatalf("unexpected route: %+v", route)
	}

	var routeData struct {
		DistanceText string `json:"distance_text"`
		DurationText string `json:"duration_text"`
	}
	if err := json.Unmarshal(nextEvent(t, client, stream.EventRoute), &routeData); err != nil {
		t.Fatal(err)
	}
	if routeData.DistanceText != "28.0 km" || routeData.DurationText != "45 min" {
		t.Errorf("unexpected route texts: %+v", routeData)
	}

	confirm, err := svc.NeedsConfirmation(pageID)
	if err != nil || !confirm {
		t.Errorf("NeedsConfirmation = %v, %v; want true", confirm, err)
	}

	tripID, err := svc.StartTrip(ctx, pageID)
	if err != nil {
		t.Fatalf("StartTrip failed: %v", err)
	}
	if len(tripID) != len("TRP-000000") {
		t.Errorf("unexpected trip id %q", tripID)
	}

	err = svc.ReportPosition(pageID, models.PositionReport{Lat: floatPtr(cherai.Lat), Lng: floatPtr(cherai.Lng)})
	if err != nil {
		t.Fatalf("ReportPosition failed: %v", err)
	}
	var pos struct {
		Percent      float64 `json:"percent"`
		PercentKnown bool    `json:"percent_known"`
	}
	if err := json.Unmarshal(nextEvent(t, client, stream.EventPosition), &pos); err != nil {
		t.Fatal(err)
	}
	if !pos.PercentKnown || pos.Percent != 100 {
		t.Errorf("expected 100%% at the destination, got %+v", pos)
	}

	view, err := svc.View(pageID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Session.Status != session.StatusActive || view.Session.ID != tripID {
		t.Errorf("unexpected view: %+v", view.Session)
	}

	if err := svc.Clear(pageID); err != nil {
		t.Fatal(err)
	}
	nextEvent(t, client, stream.EventReset)
	view, _ = svc.View(pageID)
	if view.Session.Status != session.StatusIdle || view.Tracking {
		t.Errorf("expected idle page after clear, got %+v", view)
	}
}

func TestPlannerPositionErrors(t *testing.T) {
	svc, hub := newTestPlanner(t)
	pageID := svc.CreatePage()
	client := hub.Register(pageID)
	ctx := context.Background()

	if err := svc.ReportPosition(pageID, models.PositionReport{Lat: floatPtr(10)}); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
	if err := svc.ReportPosition(pageID, models.PositionReport{ErrorCode: "gone"}); !errors.Is(err, ErrUnknownErrorCode) {
		t.Errorf("expected ErrUnknownErrorCode, got %v", err)
	}

	if _, err := svc.Plan(ctx, pageID, "Fort Kochi", "Cherai Beach"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.StartTrip(ctx, pageID); err != nil {
		t.Fatal(err)
	}

	err := svc.ReportPosition(pageID, models.PositionReport{ErrorCode: "permission_denied", Message: "User denied Geolocation"})
	if err != nil {
		t.Fatal(err)
	}
	var note stream.NotificationData
	for {
		if err := json.Unmarshal(nextEvent(t, client, stream.EventNotification), &note); err != nil {
			t.Fatal(err)
		}
		if note.Severity == session.SeverityError {
			break
		}
	}
	if note.Message != "Error getting your location: User denied Geolocation" {
		t.Errorf("unexpected notification %q", note.Message)
	}

	view, _ := svc.View(pageID)
	if view.Session.Status != session.StatusActive {
		t.Errorf("a position error must not end the trip, status %s", view.Session.Status)
	}
}

func TestPlannerLocate(t *testing.T) {
	svc, hub := newTestPlanner(t)
	pageID := svc.CreatePage()
	client := hub.Register(pageID)

	type outcome struct {
		res session.LocateResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := svc.Locate(context.Background(), pageID)
		done <- outcome{res, err}
	}()

	var req stream.PositionOptionsData
	if err := json.Unmarshal(nextEvent(t, client, stream.EventLocateRequested), &req); err != nil {
		t.Fatal(err)
	}
	if !req.HighAccuracy || req.TimeoutMs != 10000 {
		t.Errorf("unexpected locate request %+v", req)
	}

	if err := svc.ReportPosition(pageID, models.PositionReport{Lat: floatPtr(10.0), Lng: floatPtr(76.2)}); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-done:
		if got.err != nil {
			t.Fatalf("Locate failed: %v", got.err)
		}
		if got.res.Label != "Vypin, Kochi, Kerala, India" || !got.res.Resolved {
			t.Errorf("unexpected locate result %+v", got.res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Locate did not return")
	}
}

func TestPlannerUnknownPage(t *testing.T) {
	svc, _ := newTestPlanner(t)
	if _, err := svc.Plan(context.Background(), "nope", "a", "b"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Plan: expected ErrPageNotFound, got %v", err)
	}
	if err := svc.Clear("nope"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Clear: expected ErrPageNotFound, got %v", err)
	}
	if err := svc.ClosePage("nope"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("ClosePage: expected ErrPageNotFound, got %v", err)
	}
}

func TestPlannerEvictsIdlePages(t *testing.T) {
	svc, _ := newTestPlanner(t)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	idle := svc.CreatePage()
	busy := svc.CreatePage()

	now = now.Add(8 * time.Minute)
	if _, err := svc.View(busy); err != nil {
		t.Fatal(err)
	}
	now = now.Add(3 * time.Minute)

	if n := svc.EvictIdle(); n != 1 {
		t.Fatalf("expected 1 page evicted, got %d", n)
	}
	if _, err := svc.View(idle); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("idle page should be gone, got %v", err)
	}
	if svc.Pages() != 1 {
		t.Errorf("expected the busy page to stay, %d pages open", svc.Pages())
	}
}

func TestPlannerForwardsWatchOptions(t *testing.T) {
	svc, hub := newTestPlanner(t)
	pageID := svc.CreatePage()
	client := hub.Register(pageID)
	ctx := context.Background()

	if _, err := svc.Plan(ctx, pageID, "Fort Kochi", "Cherai Beach"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.StartTrip(ctx, pageID); err != nil {
		t.Fatal(err)
	}

	var opts stream.PositionOptionsData
	if err := json.Unmarshal(nextEvent(t, client, stream.EventWatchStarted), &opts); err != nil {
		t.Fatal(err)
	}
	if !opts.HighAccuracy || opts.TimeoutMs != 5000 || opts.MaxAgeMs != 0 {
		t.Errorf("unexpected watch options %+v", opts)
	}

	if err := svc.Clear(pageID); err != nil {
		t.Fatal(err)
	}
	nextEvent(t, client, stream.EventWatchStopped)
}

func TestPlannerViewWithStalledRedis(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	rdb := redis.NewClient(&redis.Options{Addr: ln.Addr().String()})
	defer rdb.Close()
	hub := stream.NewHub(rdb)
	defer hub.Close()
	defer func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	}()

	svc := NewPlannerService(PlannerConfig{
		Geocoder: stubGeocoder{places: map[string]session.Coordinate{
			"Fort Kochi":   fortKochi,
			"Cherai Beach": cherai,
		}},
		Router: stubRouter{},
		Stream: hub,
		TTL:    10 * time.Minute,
	})
	pageID := svc.CreatePage()

	start := time.Now()
	if _, err := svc.Plan(context.Background(), pageID, "Fort Kochi", "Cherai Beach"); err != nil {
		t.Fatal(err)
	}
	view, err := svc.View(pageID)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("plan and view took %v while redis is unresponsive", elapsed)
	}
	if view.Session.Status != session.StatusPlanned {
		t.Errorf("expected a planned page, got %s", view.Session.Status)
	}
}
