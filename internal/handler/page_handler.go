package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anujitha615/WayFindersHub/internal/models"
	"github.com/anujitha615/WayFindersHub/internal/service"
	"github.com/anujitha615/WayFindersHub/pkg/response"
)

// PageHandler handles HTTP requests driving the trip session of a page
type PageHandler struct {
	planner *service.PlannerService
	trips   *service.SavedTripService
}

// NewPageHandler creates a new page handler
func NewPageHandler(planner *service.PlannerService, trips *service.SavedTripService) *PageHandler {
	return &PageHandler{planner: planner, trips: trips}
}

// Create handles POST /api/v1/pages
func (h *PageHandler) Create(c *gin.Context) {
	id := h.planner.CreatePage()
	response.Created(c, gin.H{"page_id": id})
}

// Close handles DELETE /api/v1/pages/:page
func (h *PageHandler) Close(c *gin.Context) {
	if err := h.planner.ClosePage(c.Param("page")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, nil)
}

// Plan handles POST /api/v1/pages/:page/plan
func (h *PageHandler) Plan(c *gin.Context) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	route, err := h.planner.Plan(c.Request.Context(), c.Param("page"), req.Start, req.End)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, route)
}

// Start handles POST /api/v1/pages/:page/start
func (h *PageHandler) Start(c *gin.Context) {
	id, err := h.planner.StartTrip(c.Request.Context(), c.Param("page"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"trip_id": id})
}

// Clear handles POST /api/v1/pages/:page/clear
//
// When there is something to discard the request must carry confirm=true;
// otherwise it is answered with 409 and needs_confirmation.
func (h *PageHandler) Clear(c *gin.Context) {
	pageID := c.Param("page")
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	if !confirmed {
		needed, err := h.planner.NeedsConfirmation(pageID)
		if err != nil {
			respondError(c, err)
			return
		}
		if needed {
			c.JSON(http.StatusConflict, response.Response{
				Code:    http.StatusConflict,
				Message: "Are you sure you want to clear the current route?",
				Data:    gin.H{"needs_confirmation": true},
			})
			return
		}
	}

	if err := h.planner.Clear(pageID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, nil)
}

// Session handles GET /api/v1/pages/:page/session
func (h *PageHandler) Session(c *gin.Context) {
	pageID := c.Param("page")
	view, err := h.planner.View(pageID)
	if err != nil {
		respondError(c, err)
		return
	}
	needed, err := h.planner.NeedsConfirmation(pageID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"view":               view,
		"needs_confirmation": needed,
	})
}

// ReportPosition handles POST /api/v1/pages/:page/positions and
// POST /api/v1/pages/:page/locate/answer
func (h *PageHandler) ReportPosition(c *gin.Context) {
	var report models.PositionReport
	if err := c.ShouldBindJSON(&report); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.planner.ReportPosition(c.Param("page"), report); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// Locate handles POST /api/v1/pages/:page/locate
func (h *PageHandler) Locate(c *gin.Context) {
	result, err := h.planner.Locate(c.Request.Context(), c.Param("page"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// TripName handles GET /api/v1/pages/:page/trip-name
func (h *PageHandler) TripName(c *gin.Context) {
	name, err := h.trips.SuggestName(c.Param("page"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"name": name})
}
