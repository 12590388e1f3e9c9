package position

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/session"
)

func TestWatchReceivesFixesUntilCancelled(t *testing.T) {
	f := NewFeed(nil)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := f.Watch(ctx, session.PositionOptions{HighAccuracy: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Publish(session.LatLng{Lat: 9.97, Lng: 76.24}); err != nil {
		t.Fatal(err)
	}
	f.PublishError(&session.PositionError{Code: session.PositionPermissionDenied})

	r := <-ch
	if r.Err != nil || r.Position.Lat != 9.97 {
		t.Errorf("unexpected first reading %+v", r)
	}
	r = <-ch
	var pe *session.PositionError
	if !errors.As(r.Err, &pe) || pe.Code != session.PositionPermissionDenied {
		t.Errorf("expected a permission error, got %+v", r)
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected the channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("channel was not closed after cancel")
	}
	if f.Watchers() != 0 {
		t.Errorf("expected no watchers, got %d", f.Watchers())
	}
}

func TestPublishRejectsInvalidPosition(t *testing.T) {
	f := NewFeed(nil)
	if err := f.Publish(session.LatLng{Lat: 95, Lng: 10}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestReadWaitsForNextFix(t *testing.T) {
	requested := make(chan session.PositionOptions, 1)
	f := NewFeed(func(opts session.PositionOptions) { requested <- opts })

	done := make(chan session.LatLng, 1)
	go func() {
		pos, err := f.Read(context.Background(), session.PositionOptions{Timeout: time.Second})
		if err != nil {
			t.Errorf("Read failed: %v", err)
		}
		done <- pos
	}()

	opts := <-requested
	if opts.Timeout != time.Second {
		t.Errorf("unexpected request options %+v", opts)
	}
	if err := f.Publish(session.LatLng{Lat: 10.14, Lng: 76.18}); err != nil {
		t.Fatal(err)
	}
	if pos := <-done; pos.Lat != 10.14 {
		t.Errorf("unexpected position %+v", pos)
	}
}

func TestReadUsesCachedFix(t *testing.T) {
	calls := 0
	f := NewFeed(func(session.PositionOptions) { calls++ })
	if err := f.Publish(session.LatLng{Lat: 1, Lng: 2}); err != nil {
		t.Fatal(err)
	}

	pos, err := f.Read(context.Background(), session.PositionOptions{MaxCacheAge: time.Minute})
	if err != nil || pos.Lat != 1 {
		t.Fatalf("unexpected read %+v, %v", pos, err)
	}
	if calls != 0 {
		t.Errorf("a cached fix should not ask the page, got %d requests", calls)
	}
}

func TestReadTimeout(t *testing.T) {
	f := NewFeed(nil)
	_, err := f.Read(context.Background(), session.PositionOptions{Timeout: 10 * time.Millisecond})
	var pe *session.PositionError
	if !errors.As(err, &pe) || pe.Code != session.PositionTimeout {
		t.Fatalf("expected a timeout error, got %v", err)
	}
}

func TestWatchHooksFollowSubscriptions(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
		opts   session.PositionOptions
	)
	record := func(ev string) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}
	f := NewFeed(nil).OnWatch(func(o session.PositionOptions) {
		opts = o
		record("started")
	}, func() { record("stopped") })

	first, cancelFirst := context.WithCancel(context.Background())
	firstCh, _ := f.Watch(first, session.PositionOptions{HighAccuracy: true, Timeout: 5 * time.Second})
	if !opts.HighAccuracy || opts.Timeout != 5*time.Second || opts.MaxCacheAge != 0 {
		t.Fatalf("options not passed to the hook: %+v", opts)
	}

	// replacing a subscription keeps the page tracking
	second, cancelSecond := context.WithCancel(context.Background())
	secondCh, _ := f.Watch(second, session.PositionOptions{HighAccuracy: true})
	cancelFirst()
	for range firstCh {
	}

	cancelSecond()
	for range secondCh {
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"started", "started", "stopped"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}
