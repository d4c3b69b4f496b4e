package routes

import (
	"errors"
	"net/http"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/server/middleware"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/annotate"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/geometry"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/store"

	"github.com/labstack/echo/v4"
)

// CreateGroupHandler creates a logical group over a validated set of member
// elements.
func CreateGroupHandler(c echo.Context) error {
	type createGroupBody struct {
		DocID      string   `param:"id" validate:"required"`
		GroupID    string   `json:"group_id" validate:"required"`
		Name       string   `json:"name"`
		ElementIDs []string `json:"element_ids" validate:"required,min=1"`
		Pattern    *string  `json:"pattern"`
	}

	type createGroupResponse struct {
		Message    string                `json:"message"`
		GroupID    string                `json:"group_id,omitempty"`
		Bounds     *geometry.BoundingBox `json:"bounds,omitempty"`
		GroupCount int                   `json:"group_count,omitempty"`
	}

	data := new(createGroupBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createGroupResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createGroupResponse{Message: "Invalid request body"})
	}

	params := annotate.CreateGroupParams{
		GroupID:    data.GroupID,
		Name:       data.Name,
		ElementIDs: data.ElementIDs,
	}
	if data.Pattern != nil {
		pattern, err := schema.ParseStructurePattern(*data.Pattern)
		if err != nil {
			return c.JSON(http.StatusBadRequest, createGroupResponse{Message: "Unknown structure pattern"})
		}
		params.Pattern = &pattern
	}

	user := c.(*middleware.AppContext).User
	manager := c.(*middleware.AppContext).App.Manager

	doc, err := manager.CreateLogicalGroup(c.Request().Context(), data.DocID, user.Name, params)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return c.JSON(http.StatusNotFound, createGroupResponse{Message: "Document not found"})
	}
	if errors.Is(err, annotate.ErrUnknownElement) {
		return c.JSON(http.StatusBadRequest, createGroupResponse{Message: "Group references unknown element"})
	}
	if errors.Is(err, annotate.ErrGroupExists) {
		return c.JSON(http.StatusConflict, createGroupResponse{Message: "Group id already exists"})
	}
	if err != nil {
		logger.Error("Failed to create group", "docId", data.DocID, "groupId", data.GroupID, "err", err)
		return c.JSON(http.StatusInternalServerError, createGroupResponse{Message: "Internal server error"})
	}

	group := doc.Group(data.GroupID)
	return c.JSON(http.StatusOK, createGroupResponse{
		Message:    "Group created successfully",
		GroupID:    group.ID,
		Bounds:     group.Bounds,
		GroupCount: len(doc.LogicalGroups),
	})
}
