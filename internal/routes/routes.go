package routes

import (
	"github.com/akrammlh02/elearning-backend/internal/handlers"
	"github.com/akrammlh02/elearning-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Register mounts every route on r. Global middleware is the caller's job.
func Register(r *gin.Engine) {
	// Webhooks and the status endpoint stay reachable during maintenance
	open := r.Group("/api")
	RegisterWebhookRoutes(open)
	RegisterSystemRoutes(open)

	api := r.Group("/api")
	api.Use(middleware.OptionalAuthMiddleware(), middleware.MaintenanceMode())
	{
		RegisterAuthRoutes(api)
		RegisterCatalogRoutes(api)
		RegisterCommerceRoutes(api)
		RegisterUploadRoutes(api)
		RegisterAdminRoutes(api)
	}

	// Sitemap & SEO
	r.GET("/sitemap.xml", handlers.GenerateSitemap)
	r.GET("/robots.txt", handlers.GenerateRobotsTXT)
}
