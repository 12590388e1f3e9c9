package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anujitha615/WayFindersHub/internal/handler"
	"github.com/anujitha615/WayFindersHub/internal/middleware"
)

// Handlers are the route targets of the API
type Handlers struct {
	Page      *handler.PageHandler
	Stream    *handler.StreamHandler
	Geocode   *handler.GeocodeHandler
	Auth      *handler.AuthHandler
	SavedTrip *handler.SavedTripHandler

	// Tokens guards the saved trip routes
	Tokens middleware.TokenParser
	// SuggestLimiter, if set, limits suggestion requests per client
	SuggestLimiter *middleware.RateLimiter
}

// SetupRouter sets up the routes
func SetupRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "WayFinders Hub API is running",
		})
	})

	api := r.Group("/api/v1")
	{
		pages := api.Group("/pages")
		{
			pages.POST("", h.Page.Create)
			pages.DELETE("/:page", h.Page.Close)
			pages.GET("/:page/stream", h.Stream.Stream)
			pages.GET("/:page/session", h.Page.Session)
			pages.POST("/:page/plan", h.Page.Plan)
			pages.POST("/:page/start", h.Page.Start)
			pages.POST("/:page/clear", h.Page.Clear)
			pages.POST("/:page/positions", h.Page.ReportPosition)
			pages.POST("/:page/locate", h.Page.Locate)
			pages.POST("/:page/locate/answer", h.Page.ReportPosition)
			pages.GET("/:page/trip-name", h.Page.TripName)
		}

		geocode := api.Group("/geocode")
		{
			suggest := []gin.HandlerFunc{h.Geocode.Suggest}
			if h.SuggestLimiter != nil {
				suggest = append([]gin.HandlerFunc{middleware.RateLimit(h.SuggestLimiter)}, suggest...)
			}
			geocode.GET("/suggest", suggest...)
			geocode.GET("/reverse", h.Geocode.Reverse)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		saved := api.Group("/trips/saved", middleware.Auth(h.Tokens))
		{
			saved.GET("", h.SavedTrip.List)
			saved.POST("", h.SavedTrip.Save)
			saved.GET("/:id", h.SavedTrip.Get)
			saved.DELETE("/:id", h.SavedTrip.Delete)
		}
	}

	return r
}
