package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/session"
)

type recorder struct {
	pages  []string
	events []map[string]json.RawMessage
}

func (r *recorder) Broadcast(pageID string, payload []byte) {
	var ev map[string]json.RawMessage
	if err := json.Unmarshal(payload, &ev); err != nil {
		panic(err)
	}
	r.pages = append(r.pages, pageID)
	r.events = append(r.events, ev)
}

func (r *recorder) last(t *testing.T) (string, json.RawMessage) {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatal("no events recorded")
	}
	ev := r.events[len(r.events)-1]
	var typ string
	if err := json.Unmarshal(ev["type"], &typ); err != nil {
		t.Fatal(err)
	}
	return typ, ev["data"]
}

func TestRendererRoute(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec, "page-1")

	distance, duration := 28000.0, 2400.0
	r.ShowRoute(session.PlannedRoute{
		StartName:       "Fort Kochi",
		EndName:         "Cherai Beach",
		CreatedAt:       time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		DistanceMeters:  &distance,
		DurationSeconds: &duration,
		Instructions:    []string{"Head north", "You have arrived at your destination"},
		Path: []session.Coordinate{
			{Lat: 9.9658, Lng: 76.2421},
			{Lat: 9.96581, Lng: 76.24211},
			{Lat: 10.1416, Lng: 76.1783},
		},
	})

	typ, raw := rec.last(t)
	if typ != EventRoute || rec.pages[0] != "page-1" {
		t.Fatalf("unexpected event %s for %s", typ, rec.pages[0])
	}
	var data RouteData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if data.DistanceText != "28.0 km" || data.DurationText != "40 min" {
		t.Errorf("unexpected texts %q / %q", data.DistanceText, data.DurationText)
	}
	if len(data.Path) != 2 {
		t.Errorf("expected the near-duplicate point to be simplified away, got %d points", len(data.Path))
	}
	if data.Bounds == nil || data.Bounds.MaxLat < 10.14 || data.Bounds.MinLat > 9.97 {
		t.Errorf("unexpected bounds %+v", data.Bounds)
	}
	if data.Route.Path != nil {
		t.Error("route geometry should only be sent once")
	}
}

func TestRendererEndpointsAndPosition(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec, "page-1")

	r.ShowEndpoints(session.Coordinate{Lat: 0, Lng: 0}, session.Coordinate{Lat: 0, Lng: 10})
	typ, raw := rec.last(t)
	var ep EndpointsData
	if err := json.Unmarshal(raw, &ep); err != nil || typ != EventEndpoints {
		t.Fatalf("unexpected endpoints event %s: %v", typ, err)
	}
	if ep.Center.Lat > 1e-9 || ep.Center.Lat < -1e-9 || ep.Center.Lng < 4.999 || ep.Center.Lng > 5.001 {
		t.Errorf("unexpected center %+v", ep.Center)
	}

	r.ShowPosition(session.LiveProgress{RemainingMeters: 7000, Percent: 75, PercentKnown: true})
	typ, raw = rec.last(t)
	var pos PositionData
	if err := json.Unmarshal(raw, &pos); err != nil || typ != EventPosition {
		t.Fatalf("unexpected position event %s: %v", typ, err)
	}
	if pos.Percent != 75 || pos.RemainingText != "7.0 km" || !pos.Recenter {
		t.Errorf("unexpected position data %+v", pos)
	}

	r.Reset()
	if typ, _ := rec.last(t); typ != EventReset {
		t.Errorf("expected reset, got %s", typ)
	}
}

func TestRendererWatchEvents(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec, "page-1")

	r.WatchStarted(session.PositionOptions{HighAccuracy: true, Timeout: 5 * time.Second})
	typ, data := rec.last(t)
	if typ != EventWatchStarted {
		t.Fatalf("expected watch_started, got %s", typ)
	}
	var opts PositionOptionsData
	if err := json.Unmarshal(data, &opts); err != nil {
		t.Fatal(err)
	}
	if !opts.HighAccuracy || opts.TimeoutMs != 5000 || opts.MaxAgeMs != 0 {
		t.Errorf("unexpected watch options %+v", opts)
	}

	r.WatchStopped()
	if typ, _ := rec.last(t); typ != EventWatchStopped {
		t.Errorf("expected watch_stopped, got %s", typ)
	}
}
