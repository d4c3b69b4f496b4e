package routes

import (
	"errors"
	"net/http"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/server/middleware"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/store"

	"github.com/labstack/echo/v4"
)

// GetDocumentHandler returns the full persisted document graph.
func GetDocumentHandler(c echo.Context) error {
	type documentParams struct {
		DocID string `param:"id" validate:"required"`
	}

	params := new(documentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}

	manager := c.(*middleware.AppContext).App.Manager
	doc, err := manager.GetDocument(c.Request().Context(), params.DocID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Document not found"})
	}
	if err != nil {
		logger.Error("Failed to load document", "docId", params.DocID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, doc)
}

// GetProgressHandler reports annotation progress for one document.
func GetProgressHandler(c echo.Context) error {
	type progressParams struct {
		DocID string `param:"id" validate:"required"`
	}

	params := new(progressParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request"})
	}

	manager := c.(*middleware.AppContext).App.Manager
	progress, err := manager.Progress(c.Request().Context(), params.DocID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Document not found"})
	}
	if err != nil {
		logger.Error("Failed to compute progress", "docId", params.DocID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, progress)
}

// GetPendingHandler returns the next unannotated nodes of a document.
func GetPendingHandler(c echo.Context) error {
	type pendingParams struct {
		DocID string `param:"id" validate:"required"`
		Limit int    `query:"limit"`
	}

	type pendingResponse struct {
		Message string               `json:"message,omitempty"`
		Pending []schema.ElementNode `json:"pending"`
	}

	params := new(pendingParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, pendingResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, pendingResponse{Message: "Invalid request"})
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	manager := c.(*middleware.AppContext).App.Manager
	pending, err := manager.ListPending(c.Request().Context(), params.DocID, params.Limit)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.JSON(http.StatusNotFound, pendingResponse{Message: "Document not found"})
	}
	if err != nil {
		logger.Error("Failed to list pending nodes", "docId", params.DocID, "err", err)
		return c.JSON(http.StatusInternalServerError, pendingResponse{Message: "Internal server error"})
	}
	if pending == nil {
		pending = []schema.ElementNode{}
	}

	return c.JSON(http.StatusOK, pendingResponse{Pending: pending})
}
