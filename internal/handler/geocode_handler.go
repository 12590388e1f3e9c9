package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anujitha615/WayFindersHub/internal/provider/geocode"
	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/spatial"
	"github.com/anujitha615/WayFindersHub/pkg/response"
)

// GeocodeHandler handles address suggestions and reverse lookups
type GeocodeHandler struct {
	provider  geocode.Provider
	debouncer *geocode.Debouncer
}

// NewGeocodeHandler creates a new geocode handler
func NewGeocodeHandler(provider geocode.Provider, debouncer *geocode.Debouncer) *GeocodeHandler {
	return &GeocodeHandler{provider: provider, debouncer: debouncer}
}

// Suggest handles GET /api/v1/geocode/suggest?q=&page=&field=
//
// Requests are debounced per page and input field: while the user keeps
// typing, only the last query is sent to the provider and the overtaken
// ones are answered with superseded=true.
func (h *GeocodeHandler) Suggest(c *gin.Context) {
	query := c.Query("q")
	key := c.Query("page") + "|" + c.Query("field")
	if key == "|" {
		key = c.ClientIP()
	}

	if h.debouncer != nil {
		err := h.debouncer.Wait(c.Request.Context(), key)
		if errors.Is(err, geocode.ErrDebounced) {
			response.Success(c, gin.H{"query": query, "suggestions": []geocode.Suggestion{}, "superseded": true})
			return
		}
		if err != nil {
			response.Error(c, http.StatusRequestTimeout, "Request cancelled", err)
			return
		}
	}

	suggestions, err := geocode.Suggest(c.Request.Context(), h.provider, query)
	if err != nil {
		response.Error(c, http.StatusBadGateway, "Failed to get suggestions", err)
		return
	}
	response.Success(c, gin.H{"query": query, "suggestions": suggestions, "superseded": false})
}

// Reverse handles GET /api/v1/geocode/reverse?lat=&lng=
func (h *GeocodeHandler) Reverse(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil || !spatial.ValidLatLng(lat, lng) {
		response.BadRequest(c, "Invalid coordinates")
		return
	}

	name, err := h.provider.Reverse(c.Request.Context(), lat, lng)
	if errors.Is(err, session.ErrNoMatch) || (err == nil && name == "") {
		response.Success(c, gin.H{"label": spatial.FormatLatLng(lat, lng), "resolved": false})
		return
	}
	if err != nil {
		response.Error(c, http.StatusBadGateway, "Failed to reverse geocode", err)
		return
	}
	response.Success(c, gin.H{"label": name, "resolved": true})
}
