package geocode

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/spatial"
)

// ReverseCellMeters is the size of the area that shares one cached reverse lookup
const ReverseCellMeters = 20

// Cached memoizes lookups of another Provider. Failures and misses are not
// cached. Reverse lookups are shared by positions within the same geohash cell.
type Cached struct {
	next        Provider
	places      *lru.Cache[string, session.Coordinate]
	suggestions *lru.Cache[string, []Suggestion]
	names       *lru.Cache[string, string]
	precision   int
}

// NewCached wraps next with LRU caches of the given size
func NewCached(next Provider, size int) (*Cached, error) {
	places, err := lru.New[string, session.Coordinate](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create place cache: %w", err)
	}
	suggestions, err := lru.New[string, []Suggestion](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion cache: %w", err)
	}
	names, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create reverse cache: %w", err)
	}
	return &Cached{
		next:        next,
		places:      places,
		suggestions: suggestions,
		names:       names,
		precision:   spatial.GeohashPrecisionForDistance(ReverseCellMeters),
	}, nil
}

func (c *Cached) Geocode(ctx context.Context, address string) (session.Coordinate, error) {
	key := cacheKey(address)
	if coord, ok := c.places.Get(key); ok {
		return coord, nil
	}
	coord, err := c.next.Geocode(ctx, address)
	if err != nil {
		return session.Coordinate{}, err
	}
	c.places.Add(key, coord)
	return coord, nil
}

func (c *Cached) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	key := spatial.EncodeGeohash(lat, lng, c.precision)
	if name, ok := c.names.Get(key); ok {
		return name, nil
	}
	name, err := c.next.Reverse(ctx, lat, lng)
	if err != nil {
		return "", err
	}
	c.names.Add(key, name)
	return name, nil
}

func (c *Cached) Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	key := fmt.Sprintf("%d|%s", limit, cacheKey(query))
	if s, ok := c.suggestions.Get(key); ok {
		return append([]Suggestion(nil), s...), nil
	}
	s, err := c.next.Suggest(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.suggestions.Add(key, append([]Suggestion(nil), s...))
	return s, nil
}

// Len reports the number of cached entries
func (c *Cached) Len() int {
	return c.places.Len() + c.suggestions.Len() + c.names.Len()
}

func cacheKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
