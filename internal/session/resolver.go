package session

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ResolveAddresses geocodes start and end concurrently and waits for both.
// If either lookup fails the result is a *ResolutionError recording each side.
func ResolveAddresses(ctx context.Context, g Geocoder, start, end string) (Coordinate, Coordinate, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return Coordinate{}, Coordinate{}, ErrEmptyAddress
	}

	var from, to Coordinate
	var startErr, endErr error

	// no shared cancellation: a failure on one side must not hide the other's outcome
	var eg errgroup.Group
	eg.Go(func() error {
		from, startErr = lookup(ctx, g, start)
		return startErr
	})
	eg.Go(func() error {
		to, endErr = lookup(ctx, g, end)
		return endErr
	})

	if err := eg.Wait(); err != nil {
		return Coordinate{}, Coordinate{}, &ResolutionError{Start: startErr, End: endErr}
	}
	return from, to, nil
}

func lookup(ctx context.Context, g Geocoder, address string) (Coordinate, error) {
	c, err := g.Geocode(ctx, address)
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	return c, nil
}
