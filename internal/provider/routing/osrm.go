// Package routing computes driving routes through OSRM or the Google
// Directions API.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/provider"
	"github.com/anujitha615/WayFindersHub/internal/session"
)

const DefaultOSRMURL = "https://router.project-osrm.org"

// OSRM is a session.Router backed by an OSRM HTTP server
type OSRM struct {
	baseURL string
	profile string
	client  *provider.Client
}

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
	Legs []struct {
		Steps []osrmStep `json:"steps"`
	} `json:"legs"`
}

type osrmStep struct {
	Name     string `json:"name"`
	Maneuver struct {
		Type         string  `json:"type"`
		Modifier     string  `json:"modifier"`
		BearingAfter float64 `json:"bearing_after"`
		Exit         int     `json:"exit"`
	} `json:"maneuver"`
}

// NewOSRM creates an OSRM router using the driving profile
func NewOSRM(baseURL, userAgent string, timeout time.Duration) *OSRM {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	return &OSRM{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
		client:  provider.NewClient(timeout, userAgent),
	}
}

// Route requests the fastest route from one coordinate to another.
// OSRM expects lng,lat pairs and reports geometry the same way.
func (o *OSRM) Route(ctx context.Context, from, to session.Coordinate) (session.RouteResult, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson&steps=true",
		o.baseURL, o.profile, from.Lng, from.Lat, to.Lng, to.Lat)

	var resp osrmResponse
	if err := o.client.GetJSON(ctx, url, &resp); err != nil {
		var se *provider.StatusError
		if errors.As(err, &se) && json.Unmarshal([]byte(se.Body), &resp) == nil && resp.Code != "" {
			return session.RouteResult{}, osrmError(resp)
		}
		return session.RouteResult{}, fmt.Errorf("osrm route: %w", err)
	}
	if resp.Code != "Ok" {
		return session.RouteResult{}, osrmError(resp)
	}
	if len(resp.Routes) == 0 {
		return session.RouteResult{}, session.ErrNoRoute
	}

	r := resp.Routes[0]
	result := session.RouteResult{
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Path:            make([]session.Coordinate, 0, len(r.Geometry.Coordinates)),
	}
	for _, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		result.Path = append(result.Path, session.Coordinate{Lat: c[1], Lng: c[0]})
	}
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			result.Instructions = append(result.Instructions, step.instruction())
		}
	}
	return result, nil
}

func osrmError(resp osrmResponse) error {
	switch resp.Code {
	case "NoRoute", "NoSegment":
		return fmt.Errorf("osrm: %s: %w", resp.Message, session.ErrNoRoute)
	default:
		return fmt.Errorf("osrm: %s: %s", resp.Code, resp.Message)
	}
}

// instruction renders a step as readable text
func (s osrmStep) instruction() string {
	m := s.Maneuver
	var text string
	switch m.Type {
	case "depart":
		text = "Head " + compass(m.BearingAfter)
	case "arrive":
		return "You have arrived at your destination"
	case "roundabout", "rotary":
		if m.Exit > 0 {
			text = fmt.Sprintf("Enter the roundabout and take the %s exit", ordinal(m.Exit))
		} else {
			text = "Enter the roundabout"
		}
	case "merge":
		text = withModifier("Merge", m.Modifier)
	case "on ramp":
		text = withModifier("Take the ramp", m.Modifier)
	case "off ramp":
		text = withModifier("Take the exit", m.Modifier)
	case "fork":
		text = withModifier("Keep", m.Modifier) + " at the fork"
	case "new name", "continue":
		if m.Modifier == "" || m.Modifier == "straight" {
			text = "Continue"
		} else {
			text = withModifier("Continue", m.Modifier)
		}
	default:
		if m.Modifier == "uturn" {
			text = "Make a U-turn"
		} else if m.Modifier == "straight" {
			text = "Go straight"
		} else {
			text = withModifier("Turn", m.Modifier)
		}
	}
	if s.Name != "" {
		text += " onto " + s.Name
	}
	return text
}

func withModifier(verb, modifier string) string {
	if modifier == "" {
		return verb
	}
	return verb + " " + modifier
}

func compass(bearing float64) string {
	dirs := []string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}
	i := int((bearing+22.5)/45) % len(dirs)
	if i < 0 {
		i += len(dirs)
	}
	return dirs[i]
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
