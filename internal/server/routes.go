package server

import (
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/server/middleware"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", routes.HealthHandler)

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Document routes
	apiRoutes.POST("/documents", routes.ImportDocumentHandler)
	apiRoutes.POST("/documents/batch", routes.ImportBatchHandler)
	apiRoutes.GET("/documents/:id", routes.GetDocumentHandler)
	apiRoutes.GET("/documents/:id/progress", routes.GetProgressHandler)
	apiRoutes.GET("/documents/:id/pending", routes.GetPendingHandler)

	// Annotation routes
	apiRoutes.POST("/documents/:id/annotations", routes.AnnotateElementHandler)
	apiRoutes.DELETE("/documents/:id/annotations/:element_id/role", routes.ClearElementRoleHandler)
	apiRoutes.POST("/documents/:id/groups", routes.CreateGroupHandler)
	apiRoutes.POST("/documents/:id/validate", routes.ValidateDocumentHandler)

	// Prediction and enrichment routes
	apiRoutes.POST("/documents/:id/analyze", routes.AnalyzeDocumentHandler)
	apiRoutes.POST("/documents/:id/features", routes.EnrichFeaturesHandler)

	// Export route
	apiRoutes.POST("/export", routes.ExportCorpusHandler)

	// Closed category set listings
	apiRoutes.GET("/roles", routes.GetRolesHandler)
	apiRoutes.GET("/patterns", routes.GetPatternsHandler)
	apiRoutes.GET("/schema/document", routes.GetDocumentSchemaHandler)
}
