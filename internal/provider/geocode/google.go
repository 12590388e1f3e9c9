package geocode

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/anujitha615/WayFindersHub/internal/session"
)

// Google is a Provider backed by the Google Geocoding API
type Google struct {
	client *maps.Client
}

// NewGoogle creates a Google geocoder. Extra options are passed to maps.NewClient.
func NewGoogle(apiKey string, opts ...maps.ClientOption) (*Google, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient: %w", err)
	}
	return &Google{client: client}, nil
}

func (g *Google) Geocode(ctx context.Context, address string) (session.Coordinate, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return session.Coordinate{}, googleError("geocode", err)
	}
	if len(results) == 0 {
		return session.Coordinate{}, session.ErrNoMatch
	}
	r := results[0]
	return session.Coordinate{
		Lat:         r.Geometry.Location.Lat,
		Lng:         r.Geometry.Location.Lng,
		DisplayName: r.FormattedAddress,
	}, nil
}

func (g *Google) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return "", googleError("reverse geocode", err)
	}
	if len(results) == 0 || results[0].FormattedAddress == "" {
		return "", session.ErrNoMatch
	}
	return results[0].FormattedAddress, nil
}

func (g *Google) Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		if isZeroResults(err) {
			return []Suggestion{}, nil
		}
		return nil, fmt.Errorf("google suggest: %w", err)
	}

	out := make([]Suggestion, 0, limit)
	for _, r := range results {
		if len(out) == limit {
			break
		}
		out = append(out, Suggestion{
			DisplayName: r.FormattedAddress,
			Lat:         r.Geometry.Location.Lat,
			Lng:         r.Geometry.Location.Lng,
		})
	}
	return out, nil
}

// the maps client reports ZERO_RESULTS as an error
func googleError(op string, err error) error {
	if isZeroResults(err) {
		return session.ErrNoMatch
	}
	return fmt.Errorf("google %s: %w", op, err)
}

func isZeroResults(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ZERO_RESULTS")
}
