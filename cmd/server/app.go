package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/anujitha615/WayFindersHub/internal/api"
	"github.com/anujitha615/WayFindersHub/internal/config"
	"github.com/anujitha615/WayFindersHub/internal/database"
	"github.com/anujitha615/WayFindersHub/internal/handler"
	"github.com/anujitha615/WayFindersHub/internal/middleware"
	"github.com/anujitha615/WayFindersHub/internal/notify"
	"github.com/anujitha615/WayFindersHub/internal/provider/geocode"
	"github.com/anujitha615/WayFindersHub/internal/provider/routing"
	"github.com/anujitha615/WayFindersHub/internal/repository"
	"github.com/anujitha615/WayFindersHub/internal/service"
	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/stream"
)

type app struct {
	db      *sql.DB
	redis   *redis.Client
	hub     *stream.Hub
	limiter *middleware.RateLimiter
	planner *service.PlannerService
	router  *gin.Engine
}

func newApp(cfg *config.Config) (*app, error) {
	geocoder, err := newGeocoder(cfg)
	if err != nil {
		return nil, err
	}
	router, err := newRouter(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &app{db: db}
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Printf("stream: relaying page events through redis at %s", cfg.RedisAddr)
	}
	a.hub = stream.NewHub(a.redis)

	var notifiers []session.Notifier
	if cfg.NtfyTopic != "" {
		notifiers = append(notifiers, notify.NewNtfy(cfg.NtfyURL, cfg.NtfyTopic, session.SeverityError))
	}

	a.planner = service.NewPlannerService(service.PlannerConfig{
		Geocoder:  geocoder,
		Router:    router,
		Stream:    a.hub,
		Notifiers: notifiers,
		TTL:       cfg.PageTTLDuration(),
	})

	auth := service.NewAuthService(repository.NewUserRepository(db), cfg.JWTSecret, cfg.TokenTTLDuration())
	trips := service.NewSavedTripService(repository.NewSavedTripRepository(db), a.planner)

	if cfg.SuggestRateLimit > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.SuggestRateLimit, time.Minute)
	}

	var debouncer *geocode.Debouncer
	if d := cfg.SuggestDebounceDuration(); d > 0 {
		debouncer = geocode.NewDebouncer(d)
	}

	gin.SetMode(gin.ReleaseMode)
	a.router = api.SetupRouter(api.Handlers{
		Page:           handler.NewPageHandler(a.planner, trips),
		Stream:         handler.NewStreamHandler(a.hub, a.planner),
		Geocode:        handler.NewGeocodeHandler(geocoder, debouncer),
		Auth:           handler.NewAuthHandler(auth),
		SavedTrip:      handler.NewSavedTripHandler(trips),
		Tokens:         auth,
		SuggestLimiter: a.limiter,
	})
	return a, nil
}

func (a *app) Close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	a.hub.Close()
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
}

func newGeocoder(cfg *config.Config) (*geocode.Cached, error) {
	var p geocode.Provider
	switch cfg.GeocodingProvider {
	case "google":
		g, err := geocode.NewGoogle(cfg.GoogleMapsAPIKey)
		if err != nil {
			return nil, err
		}
		p = g
	default:
		p = geocode.NewNominatim(cfg.NominatimURL, cfg.UserAgent, cfg.ProviderTimeoutDuration())
	}
	return geocode.NewCached(p, cfg.SuggestCacheSize)
}

func newRouter(cfg *config.Config) (session.Router, error) {
	switch cfg.RoutingProvider {
	case "google":
		g, err := routing.NewGoogle(cfg.GoogleMapsAPIKey)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return routing.NewOSRM(cfg.OSRMURL, cfg.UserAgent, cfg.ProviderTimeoutDuration()), nil
	}
}
