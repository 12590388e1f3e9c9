package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anujitha615/WayFindersHub/internal/middleware"
	"github.com/anujitha615/WayFindersHub/internal/models"
	"github.com/anujitha615/WayFindersHub/internal/service"
	"github.com/anujitha615/WayFindersHub/pkg/response"
)

// SavedTripHandler handles HTTP requests for a user's saved trips
type SavedTripHandler struct {
	service *service.SavedTripService
}

// NewSavedTripHandler creates a new saved trip handler
func NewSavedTripHandler(service *service.SavedTripService) *SavedTripHandler {
	return &SavedTripHandler{service: service}
}

// List handles GET /api/v1/trips/saved
func (h *SavedTripHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Please login to view saved trips", nil)
		return
	}

	var filter models.SavedTripFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	filter.Normalize()

	trips, total, err := h.service.List(userID, filter)
	if err != nil {
		response.InternalError(c, "Failed to get saved trips", err)
		return
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}
	response.Success(c, gin.H{
		"data":       trips,
		"total":      total,
		"page":       filter.Page,
		"pageSize":   filter.PageSize,
		"totalPages": totalPages,
	})
}

// Get handles GET /api/v1/trips/saved/:id
func (h *SavedTripHandler) Get(c *gin.Context) {
	userID, id, ok := h.ids(c)
	if !ok {
		return
	}
	trip, err := h.service.Get(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, trip)
}

// Save handles POST /api/v1/trips/saved
func (h *SavedTripHandler) Save(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Please login to save trips", nil)
		return
	}

	var req models.SaveTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	trip, err := h.service.Save(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, trip)
}

// Delete handles DELETE /api/v1/trips/saved/:id
func (h *SavedTripHandler) Delete(c *gin.Context) {
	userID, id, ok := h.ids(c)
	if !ok {
		return
	}
	if err := h.service.Delete(userID, id); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *SavedTripHandler) ids(c *gin.Context) (userID, id int64, ok bool) {
	userID, ok = middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Please login to continue", nil)
		return 0, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid trip ID", err)
		return 0, 0, false
	}
	return userID, id, true
}
