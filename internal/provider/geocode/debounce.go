package geocode

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a suggestion query is issued
const DefaultDebounce = 300 * time.Millisecond

// ErrDebounced is returned to a call that was overtaken by a newer call with
// the same key before its quiet period elapsed
var ErrDebounced = errors.New("superseded by a newer query")

// Debouncer lets only the last of a burst of calls through. Calls are grouped
// by key, typically one key per input field of a page.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]chan struct{}
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, pending: make(map[string]chan struct{})}
}

// Wait blocks for the quiet period. It returns nil if no newer call with the
// same key arrived meanwhile, ErrDebounced if one did, or the context error.
func (d *Debouncer) Wait(ctx context.Context, key string) error {
	mine := make(chan struct{})

	d.mu.Lock()
	if prev, ok := d.pending[key]; ok {
		close(prev)
	}
	d.pending[key] = mine
	d.mu.Unlock()

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-mine:
		return ErrDebounced
	case <-ctx.Done():
		d.release(key, mine)
		return ctx.Err()
	case <-timer.C:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[key] != mine {
		return ErrDebounced
	}
	delete(d.pending, key)
	return nil
}

func (d *Debouncer) release(key string, ch chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[key] == ch {
		delete(d.pending, key)
	}
}
