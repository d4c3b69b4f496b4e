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

type annotationResponse struct {
	Message           string                  `json:"message"`
	Status            schema.AnnotationStatus `json:"status,omitempty"`
	AnnotatedElements int                     `json:"annotated_elements,omitempty"`
	TotalElements     int                     `json:"total_elements,omitempty"`
}

// AnnotateElementHandler applies a partial annotation update to one element.
// Omitted fields stay untouched; a supplied role is stored with confidence
// 1.0.
func AnnotateElementHandler(c echo.Context) error {
	type annotateBody struct {
		DocID     string    `param:"id" validate:"required"`
		ElementID string    `json:"element_id" validate:"required"`
		Role      *string   `json:"role"`
		GroupID   *string   `json:"group_id"`
		Tags      *[]string `json:"tags"`
	}

	data := new(annotateBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, annotationResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, annotationResponse{Message: "Invalid request body"})
	}

	update := annotate.ElementUpdate{GroupID: data.GroupID}
	if data.Role != nil {
		role, err := schema.ParseHierarchyRole(*data.Role)
		if err != nil {
			return c.JSON(http.StatusBadRequest, annotationResponse{Message: "Unknown hierarchy role"})
		}
		update.Role = &role
	}
	if data.Tags != nil {
		update.Tags = *data.Tags
	}

	user := c.(*middleware.AppContext).User
	manager := c.(*middleware.AppContext).App.Manager

	doc, err := manager.AnnotateElement(c.Request().Context(), data.DocID, data.ElementID, user.Name, update)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.JSON(http.StatusNotFound, annotationResponse{Message: "Document not found"})
	}
	if errors.Is(err, annotate.ErrElementNotFound) {
		return c.JSON(http.StatusNotFound, annotationResponse{Message: "Element not found"})
	}
	if err != nil {
		logger.Error("Failed to annotate element", "docId", data.DocID, "elementId", data.ElementID, "err", err)
		return c.JSON(http.StatusInternalServerError, annotationResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, annotationResponse{
		Message:           "Element annotated successfully",
		Status:            doc.AnnotationStatus,
		AnnotatedElements: doc.AnnotatedCount(),
		TotalElements:     len(doc.Nodes),
	})
}

// ClearElementRoleHandler explicitly unsets a previously assigned role.
func ClearElementRoleHandler(c echo.Context) error {
	type clearParams struct {
		DocID     string `param:"id" validate:"required"`
		ElementID string `param:"element_id" validate:"required"`
	}

	params := new(clearParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, annotationResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, annotationResponse{Message: "Invalid request"})
	}

	user := c.(*middleware.AppContext).User
	manager := c.(*middleware.AppContext).App.Manager

	doc, err := manager.ClearElementRole(c.Request().Context(), params.DocID, params.ElementID, user.Name)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.JSON(http.StatusNotFound, annotationResponse{Message: "Document not found"})
	}
	if errors.Is(err, annotate.ErrElementNotFound) {
		return c.JSON(http.StatusNotFound, annotationResponse{Message: "Element not found"})
	}
	if err != nil {
		logger.Error("Failed to clear role", "docId", params.DocID, "elementId", params.ElementID, "err", err)
		return c.JSON(http.StatusInternalServerError, annotationResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, annotationResponse{
		Message:           "Role cleared successfully",
		Status:            doc.AnnotationStatus,
		AnnotatedElements: doc.AnnotatedCount(),
		TotalElements:     len(doc.Nodes),
	})
}

// ValidateDocumentHandler marks a document as reviewed.
func ValidateDocumentHandler(c echo.Context) error {
	type validateBody struct {
		DocID string `param:"id" validate:"required"`
		Notes string `json:"notes"`
	}

	data := new(validateBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, annotationResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, annotationResponse{Message: "Invalid request body"})
	}

	user := c.(*middleware.AppContext).User
	manager := c.(*middleware.AppContext).App.Manager

	doc, err := manager.Validate(c.Request().Context(), data.DocID, data.Notes, user.Name)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.JSON(http.StatusNotFound, annotationResponse{Message: "Document not found"})
	}
	if err != nil {
		logger.Error("Failed to validate document", "docId", data.DocID, "err", err)
		return c.JSON(http.StatusInternalServerError, annotationResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, annotationResponse{
		Message: "Document validated successfully",
		Status:  doc.AnnotationStatus,
	})
}
