package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"culturaviva/internal/handler"
	"culturaviva/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	NavigationHandler  *handler.NavigationHandler
	CertificateHandler *handler.CertificateHandler
	TemplateHandler    *handler.TemplateHandler
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
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
		router.Use(middleware.ErrorReportingMiddleware())
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Navigation routes.
	navigation := router.Group("/navigation")
	{
		navigation.POST("/directions", deps.NavigationHandler.Directions)
		navigation.GET("/maps-link", deps.NavigationHandler.MapsLink)
		navigation.GET("/nearby", deps.NavigationHandler.Nearby)
		navigation.GET("/ws", deps.NavigationHandler.Session)
	}

	// Public certificate validation.
	public := router.Group("/public")
	{
		public.GET("/certificates/:code", deps.CertificateHandler.Validate)
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		certificates := v1.Group("/certificates")
		{
			certificates.POST("", deps.CertificateHandler.Issue)
		}

		templates := v1.Group("/certificate-templates")
		{
			templates.POST("", deps.TemplateHandler.Create)
			templates.GET("", deps.TemplateHandler.GetAll)
			templates.GET("/:id", deps.TemplateHandler.Get)
			templates.PUT("/:id", deps.TemplateHandler.Update)
			templates.DELETE("/:id", deps.TemplateHandler.Delete)
			templates.GET("/:id/variables", deps.TemplateHandler.Variables)
		}
	}

	return router
}
