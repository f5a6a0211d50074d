package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"riseup/internal/handler"
	"riseup/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	DonationHandler *handler.DonationHandler
	WebhookHandler  *handler.WebhookHandler
	StreamHandler   *handler.StreamHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Donation routes.
		donations := v1.Group("/donations")
		{
			donations.POST("", deps.DonationHandler.CreateDonation)
			donations.GET("", deps.DonationHandler.ListDonations)
			donations.GET("/stats", deps.DonationHandler.GetStats)
			donations.GET("/:id", deps.DonationHandler.GetDonation)
			donations.GET("/:id/stream", deps.StreamHandler.StreamStatus)
			donations.POST("/:id/status", deps.WebhookHandler.ManualUpdate)
		}

		// Provider callback routes.
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/:provider", deps.WebhookHandler.HandleWebhook)
		}

		// Payment method catalog.
		payments := v1.Group("/payments")
		{
			payments.GET("/methods", deps.WebhookHandler.PaymentMethods)
		}
	}

	return router
}
