// Package geocode resolves addresses to coordinates through Nominatim or the
// Google Geocoding API.
package geocode

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/anujitha615/WayFindersHub/internal/session"
)

const (
	// MinQueryLength is the shortest query, in characters, that produces suggestions
	MinQueryLength = 3
	// SuggestionLimit caps the number of suggestions returned
	SuggestionLimit = 5
)

// Suggestion is one search-as-you-type candidate
type Suggestion struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// Provider is a geocoder that also answers search-as-you-type queries
type Provider interface {
	session.Geocoder
	Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error)
}

// Suggest returns up to SuggestionLimit suggestions for a partially typed address.
// Queries shorter than MinQueryLength return nothing without calling the provider.
func Suggest(ctx context.Context, p Provider, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []Suggestion{}, nil
	}
	out, err := p.Suggest(ctx, query, SuggestionLimit)
	if err != nil {
		return nil, err
	}
	if len(out) > SuggestionLimit {
		out = out[:SuggestionLimit]
	}
	return out, nil
}
