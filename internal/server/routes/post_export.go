package routes

import (
	"net/http"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/server/middleware"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ExportCorpusHandler assembles the training corpus from every partially or
// fully annotated document. Pending documents are excluded.
func ExportCorpusHandler(c echo.Context) error {
	manager := c.(*middleware.AppContext).App.Manager

	corpus, err := manager.ExportTrainingData(c.Request().Context())
	if err != nil {
		logger.Error("Failed to export training data", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, corpus)
}
