// Package position implements a session.PositionSource fed by the page: the
// browser reports fixes over HTTP and the feed fans them out to readers.
package position

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/spatial"
)

const watchBuffer = 8

var ErrInvalidPosition = errors.New("invalid position")

// Feed receives device positions from one page and serves them to the
// session controller of that page
type Feed struct {
	onRequest      func(session.PositionOptions)
	onWatchStarted func(session.PositionOptions)
	onWatchStopped func()
	now            func() time.Time

	mu       sync.Mutex
	last     session.LatLng
	lastAt   time.Time
	hasFix   bool
	nextID   uint64
	watchers map[uint64]chan session.PositionReading
	waiting  map[uint64]chan session.PositionReading
}

// NewFeed creates a feed. onRequest, if not nil, is called whenever a one-shot
// read needs a fresh fix from the page.
func NewFeed(onRequest func(session.PositionOptions)) *Feed {
	return &Feed{
		onRequest: onRequest,
		now:       time.Now,
		watchers:  make(map[uint64]chan session.PositionReading),
		waiting:   make(map[uint64]chan session.PositionReading),
	}
}

// OnWatch sets the hooks that tell the page to start and stop continuous
// tracking. started runs for every new subscription, stopped once the last one
// is cancelled. Both run under the feed lock so the page sees them in order.
func (f *Feed) OnWatch(started func(session.PositionOptions), stopped func()) *Feed {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onWatchStarted, f.onWatchStopped = started, stopped
	return f
}

// Read returns a cached fix if it is younger than opts.MaxCacheAge, otherwise
// asks the page for one and waits up to opts.Timeout.
func (f *Feed) Read(ctx context.Context, opts session.PositionOptions) (session.LatLng, error) {
	f.mu.Lock()
	if f.hasFix && opts.MaxCacheAge > 0 && f.now().Sub(f.lastAt) <= opts.MaxCacheAge {
		pos := f.last
		f.mu.Unlock()
		return pos, nil
	}
	f.nextID++
	id := f.nextID
	ch := make(chan session.PositionReading, 1)
	f.waiting[id] = ch
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.waiting, id)
		f.mu.Unlock()
	}()

	if f.onRequest != nil {
		f.onRequest(opts)
	}

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case r := <-ch:
		return r.Position, r.Err
	case <-timeout:
		return session.LatLng{}, &session.PositionError{Code: session.PositionTimeout, Message: "timed out waiting for a position"}
	case <-ctx.Done():
		return session.LatLng{}, ctx.Err()
	}
}

// Watch subscribes to every fix and error the page reports until ctx is done
func (f *Feed) Watch(ctx context.Context, opts session.PositionOptions) (<-chan session.PositionReading, error) {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	ch := make(chan session.PositionReading, watchBuffer)
	f.watchers[id] = ch
	if f.onWatchStarted != nil {
		f.onWatchStarted(opts)
	}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.watchers, id)
		if len(f.watchers) == 0 && f.onWatchStopped != nil {
			f.onWatchStopped()
		}
		f.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// Publish delivers a fix reported by the page
func (f *Feed) Publish(pos session.LatLng) error {
	if !spatial.ValidLatLng(pos.Lat, pos.Lng) {
		return ErrInvalidPosition
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.last, f.lastAt, f.hasFix = pos, f.now(), true
	f.deliverLocked(session.PositionReading{Position: pos})
	return nil
}

// PublishError delivers a failure reported by the page, such as a denied permission
func (f *Feed) PublishError(err *session.PositionError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliverLocked(session.PositionReading{Err: err})
}

// Watchers reports the number of live subscriptions
func (f *Feed) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

func (f *Feed) deliverLocked(r session.PositionReading) {
	for id, ch := range f.watchers {
		select {
		case ch <- r:
		default:
			log.Printf("position feed: watcher %d is full, dropping reading", id)
		}
	}
	for id, ch := range f.waiting {
		select {
		case ch <- r:
		default:
		}
		delete(f.waiting, id)
	}
}
