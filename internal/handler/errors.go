package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anujitha615/WayFindersHub/internal/position"
	"github.com/anujitha615/WayFindersHub/internal/service"
	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/pkg/response"
)

// respondError maps domain errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	var (
		resolution *session.ResolutionError
		routing    *session.RoutingError
		pos        *session.PositionError
	)

	switch {
	case errors.Is(err, service.ErrPageNotFound):
		response.NotFound(c, "Page not found", err)
	case errors.Is(err, session.ErrEmptyAddress):
		response.Error(c, http.StatusBadRequest, "Please enter both a starting point and a destination.", err)
	case errors.As(err, &resolution):
		response.Error(c, http.StatusUnprocessableEntity, "Could not find one or both locations. Please check your addresses and try again.", err)
	case errors.As(err, &routing):
		response.Error(c, http.StatusUnprocessableEntity, "Could not calculate route. Please check your start and destination.", err)
	case errors.Is(err, session.ErrRouteNotReady):
		response.Error(c, http.StatusConflict, "Please plan a route first", err)
	case errors.Is(err, session.ErrSuperseded):
		response.Error(c, http.StatusConflict, "Superseded by a newer request", err)
	case errors.As(err, &pos):
		response.Error(c, http.StatusUnprocessableEntity, "Error getting your location: "+pos.Error(), err)
	case errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, service.ErrUnknownErrorCode),
		errors.Is(err, position.ErrInvalidPosition):
		response.Error(c, http.StatusBadRequest, "Invalid position", err)
	case errors.Is(err, service.ErrNoRouteToSave):
		response.Error(c, http.StatusConflict, "Please plan a route first", err)
	case errors.Is(err, service.ErrTripNameRequired):
		response.Error(c, http.StatusBadRequest, "Please enter a name for your trip", err)
	case errors.Is(err, service.ErrTripNameTaken):
		response.Error(c, http.StatusConflict, "You already have a saved trip with this name. Please choose a different name.", err)
	case errors.Is(err, service.ErrSavedTripNotFound):
		response.NotFound(c, "Trip not found", err)
	case errors.Is(err, service.ErrPasswordMismatch):
		response.Error(c, http.StatusBadRequest, "Passwords do not match", err)
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(c, http.StatusConflict, "An account with this email already exists", err)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "Invalid email or password", err)
	default:
		response.InternalError(c, "Internal server error", err)
	}
}
