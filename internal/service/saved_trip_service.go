package service

import (
	"errors"
	"strings"

	"github.com/anujitha615/WayFindersHub/internal/models"
	"github.com/anujitha615/WayFindersHub/internal/repository"
	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/spatial"
)

var (
	ErrNoRouteToSave     = errors.New("please plan a route first")
	ErrTripNameRequired  = errors.New("please enter a name for your trip")
	ErrTripNameTaken     = errors.New("you already have a saved trip with this name, please choose a different name")
	ErrSavedTripNotFound = errors.New("saved trip not found")
)

// RouteSource returns the computed route of a page
type RouteSource interface {
	CurrentRoute(pageID string) (session.PlannedRoute, bool, error)
}

// SavedTripService stores the routes users plan under names of their choice
type SavedTripService struct {
	repo   *repository.SavedTripRepository
	routes RouteSource
}

// NewSavedTripService creates a new saved trip service
func NewSavedTripService(repo *repository.SavedTripRepository, routes RouteSource) *SavedTripService {
	return &SavedTripService{repo: repo, routes: routes}
}

// Save stores the page's current route for the user
func (s *SavedTripService) Save(userID int64, req models.SaveTripRequest) (*models.SavedTrip, error) {
	route, ok, err := s.routes.CurrentRoute(req.PageID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoRouteToSave
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrTripNameRequired
	}
	taken, err := s.repo.NameExists(userID, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrTripNameTaken
	}

	trip := &models.SavedTrip{
		UserID:          userID,
		Name:            name,
		StartName:       route.StartName,
		EndName:         route.EndName,
		StartLat:        route.Start.Lat,
		StartLng:        route.Start.Lng,
		EndLat:          route.End.Lat,
		EndLng:          route.End.Lng,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Instructions:    route.Instructions,
		Path:            pathOf(route),
		IsFavorite:      req.IsFavorite,
		PlannedAt:       route.CreatedAt,
	}
	if err := s.repo.Create(trip); err != nil {
		// lost a race with a concurrent save of the same name
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrTripNameTaken
		}
		return nil, err
	}
	decorate(trip)
	return trip, nil
}

// SuggestName proposes a default name for the page's current route
func (s *SavedTripService) SuggestName(pageID string) (string, error) {
	route, ok, err := s.routes.CurrentRoute(pageID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoRouteToSave
	}
	return models.DefaultTripName(route.StartName, route.EndName), nil
}

// List retrieves the user's saved trips with pagination
func (s *SavedTripService) List(userID int64, filter models.SavedTripFilter) ([]models.SavedTrip, int64, error) {
	trips, total, err := s.repo.List(userID, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range trips {
		decorate(&trips[i])
	}
	return trips, total, nil
}

// Get retrieves one saved trip of the user
func (s *SavedTripService) Get(userID, id int64) (*models.SavedTrip, error) {
	trip, err := s.repo.GetByID(userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSavedTripNotFound
	}
	if err != nil {
		return nil, err
	}
	decorate(trip)
	return trip, nil
}

// Delete removes one saved trip of the user
func (s *SavedTripService) Delete(userID, id int64) error {
	err := s.repo.Delete(userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSavedTripNotFound
	}
	return err
}

func decorate(trip *models.SavedTrip) {
	if trip.DistanceMeters != nil {
		trip.DistanceText = spatial.FormatKm(*trip.DistanceMeters)
	}
	if trip.DurationSeconds != nil {
		trip.DurationText = spatial.FormatDuration(*trip.DurationSeconds)
	}
}

func pathOf(route session.PlannedRoute) []models.LatLng {
	path := make([]models.LatLng, 0, len(route.Path))
	for _, c := range route.Path {
		path = append(path, models.LatLng{Lat: c.Lat, Lng: c.Lng})
	}
	return path
}
