package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/provider"
	"github.com/anujitha615/WayFindersHub/internal/session"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim is a Provider backed by an OpenStreetMap Nominatim server
type Nominatim struct {
	baseURL string
	client  *provider.Client
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type nominatimReverse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NewNominatim creates a Nominatim client. Nominatim's usage policy requires an
// identifying user agent.
func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &Nominatim{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  provider.NewClient(timeout, userAgent),
	}
}

// Geocode returns the best match for address, or session.ErrNoMatch
func (n *Nominatim) Geocode(ctx context.Context, address string) (session.Coordinate, error) {
	places, err := n.search(ctx, address, 1, false)
	if err != nil {
		return session.Coordinate{}, err
	}
	if len(places) == 0 {
		return session.Coordinate{}, session.ErrNoMatch
	}
	return places[0].coordinate()
}

// Reverse returns the display name of the place at lat, lng
func (n *Nominatim) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	var result nominatimReverse
	if err := n.client.GetJSON(ctx, n.baseURL+"/reverse?"+params.Encode(), &result); err != nil {
		return "", fmt.Errorf("nominatim reverse: %w", err)
	}
	if result.Error != "" || result.DisplayName == "" {
		return "", session.ErrNoMatch
	}
	return result.DisplayName, nil
}

// Suggest returns address candidates for a partial query
func (n *Nominatim) Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	places, err := n.search(ctx, query, limit, true)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(places))
	for _, p := range places {
		c, err := p.coordinate()
		if err != nil {
			continue
		}
		out = append(out, Suggestion{DisplayName: c.DisplayName, Lat: c.Lat, Lng: c.Lng})
	}
	return out, nil
}

func (n *Nominatim) search(ctx context.Context, query string, limit int, details bool) ([]nominatimPlace, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	if details {
		params.Set("addressdetails", "1")
	}

	var places []nominatimPlace
	if err := n.client.GetJSON(ctx, n.baseURL+"/search?"+params.Encode(), &places); err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}
	return places, nil
}

func (p nominatimPlace) coordinate() (session.Coordinate, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return session.Coordinate{}, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return session.Coordinate{}, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}
	return session.Coordinate{Lat: lat, Lng: lng, DisplayName: p.DisplayName}, nil
}
