package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/gigflow-be/internal/api/dto"
	"github.com/cuongbtq/gigflow-be/internal/api/handler"
)

const (
	defaultIdentityHeader = "X-User-ID"
	defaultNameHeader     = "X-User-Name"
	defaultServiceName    = "gigflow-api-service"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	if deps.IdentityHeader == "" {
		deps.IdentityHeader = defaultIdentityHeader
	}
	if deps.NameHeader == "" {
		deps.NameHeader = defaultNameHeader
	}
	if deps.ServiceName == "" {
		deps.ServiceName = defaultServiceName
	}

	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(deps.IdentityHeader, deps.NameHeader))

	r.GET("/health", healthHandler(deps))

	marketHandler := handler.NewMarketHandler(deps)
	notificationHandler := handler.NewNotificationHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(IdentityMiddleware(deps.IdentityHeader, deps.NameHeader))
	{
		gigs := v1.Group("/gigs")
		{
			// POST /api/v1/gigs - Post a new gig
			gigs.POST("", marketHandler.CreateGig)

			// GET /api/v1/gigs/:gig_id - Get gig details
			gigs.GET("/:gig_id", marketHandler.GetGig)

			// GET /api/v1/gigs/:gig_id/bids - List bids (owner only)
			gigs.GET("/:gig_id/bids", marketHandler.ListGigBids)
		}

		bids := v1.Group("/bids")
		{
			// POST /api/v1/bids - Submit a bid
			bids.POST("", marketHandler.SubmitBid)

			// PATCH /api/v1/bids/:bid_id/hire - Hire the bidder
			bids.PATCH("/:bid_id/hire", marketHandler.HireBid)
		}

		me := v1.Group("/me")
		{
			me.GET("/bids", marketHandler.ListMyBids)
			me.GET("/gigs", marketHandler.ListMyGigs)
		}

		// GET /api/v1/notifications/stream - Open a live notification channel
		v1.GET("/notifications/stream", notificationHandler.Stream)
	}

	return r
}

func healthHandler(deps *handler.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := dto.HealthResponse{
			Status:       "healthy",
			Service:      deps.ServiceName,
			Database:     "up",
			LiveChannels: deps.Bus.Registry().Count(),
		}

		status := http.StatusOK
		if deps.DBClient != nil {
			if err := deps.DBClient.HealthCheck(c.Request.Context()); err != nil {
				resp.Status = "unhealthy"
				resp.Database = "down"
				status = http.StatusServiceUnavailable
			}
		}

		c.JSON(status, resp)
	}
}
