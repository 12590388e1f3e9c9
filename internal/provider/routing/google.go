package routing

import (
	"context"
	"fmt"
	"html"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/anujitha615/WayFindersHub/internal/session"
)

// Google is a session.Router backed by the Google Directions API
type Google struct {
	client *maps.Client
	mode   maps.Mode
}

// NewGoogle creates a Google router for driving directions
func NewGoogle(apiKey string, opts ...maps.ClientOption) (*Google, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient: %w", err)
	}
	return &Google{client: client, mode: maps.TravelModeDriving}, nil
}

func (g *Google) Route(ctx context.Context, from, to session.Coordinate) (session.RouteResult, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", from.Lat, from.Lng),
		Destination: fmt.Sprintf("%f,%f", to.Lat, to.Lng),
		Mode:        g.mode,
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") || strings.Contains(err.Error(), "NOT_FOUND") {
			return session.RouteResult{}, fmt.Errorf("google directions: %v: %w", err, session.ErrNoRoute)
		}
		return session.RouteResult{}, fmt.Errorf("google directions: %w", err)
	}
	if len(routes) == 0 {
		return session.RouteResult{}, session.ErrNoRoute
	}

	rt := routes[0]
	var result session.RouteResult
	for _, leg := range rt.Legs {
		result.DistanceMeters += float64(leg.Distance.Meters)
		result.DurationSeconds += leg.Duration.Seconds()
		for _, step := range leg.Steps {
			if text := stripHTML(step.HTMLInstructions); text != "" {
				result.Instructions = append(result.Instructions, text)
			}
		}
	}

	points, err := rt.OverviewPolyline.Decode()
	if err != nil {
		return session.RouteResult{}, fmt.Errorf("google directions: invalid polyline: %w", err)
	}
	result.Path = make([]session.Coordinate, 0, len(points))
	for _, p := range points {
		result.Path = append(result.Path, session.Coordinate{Lat: p.Lat, Lng: p.Lng})
	}
	return result, nil
}

// stripHTML drops markup from a Directions instruction
func stripHTML(s string) string {
	out := make([]rune, 0, len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			out = append(out, ' ')
		case !inTag:
			out = append(out, r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(string(out))), " ")
}
