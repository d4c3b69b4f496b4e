package routes

import (
	"errors"
	"net/http"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/server/middleware"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/annotate"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/store"

	"github.com/labstack/echo/v4"
)

// AnalyzeDocumentHandler runs the configured predictor over a document and
// stores the predicted roles. Human annotations are never overwritten.
func AnalyzeDocumentHandler(c echo.Context) error {
	type analyzeParams struct {
		DocID string `param:"id" validate:"required"`
	}

	type analyzeResponse struct {
		Message string                  `json:"message"`
		Applied int                     `json:"applied,omitempty"`
		Status  schema.AnnotationStatus `json:"status,omitempty"`
	}

	params := new(analyzeParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{Message: "Invalid request"})
	}

	manager := c.(*middleware.AppContext).App.Manager
	doc, applied, err := manager.AutoAnnotate(c.Request().Context(), params.DocID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.JSON(http.StatusNotFound, analyzeResponse{Message: "Document not found"})
	}
	if err != nil {
		logger.Error("Failed to analyze document", "docId", params.DocID, "err", err)
		return c.JSON(http.StatusBadGateway, analyzeResponse{Message: "Prediction failed"})
	}

	return c.JSON(http.StatusOK, analyzeResponse{
		Message: "Document analyzed successfully",
		Applied: applied,
		Status:  doc.AnnotationStatus,
	})
}

// EnrichFeaturesHandler stores external visual feature vectors and refreshes
// similar_visual edges.
func EnrichFeaturesHandler(c echo.Context) error {
	type featuresBody struct {
		DocID    string               `param:"id" validate:"required"`
		Features map[string][]float64 `json:"features" validate:"required,min=1"`
	}

	type featuresResponse struct {
		Message    string `json:"message"`
		EdgesAdded int    `json:"edges_added"`
	}

	data := new(featuresBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, featuresResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, featuresResponse{Message: "Invalid request body"})
	}

	manager := c.(*middleware.AppContext).App.Manager
	_, added, err := manager.EnrichVisualEdges(c.Request().Context(), data.DocID, data.Features)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.JSON(http.StatusNotFound, featuresResponse{Message: "Document not found"})
	}
	if errors.Is(err, annotate.ErrElementNotFound) {
		return c.JSON(http.StatusBadRequest, featuresResponse{Message: "Features reference unknown element"})
	}
	if err != nil {
		logger.Error("Failed to enrich features", "docId", data.DocID, "err", err)
		return c.JSON(http.StatusInternalServerError, featuresResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, featuresResponse{
		Message:    "Features stored successfully",
		EdgesAdded: added,
	})
}
