package routes

import (
	"net/http"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"

	"github.com/invopop/jsonschema"
	"github.com/labstack/echo/v4"
)

type categoryEntry struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// GetRolesHandler lists the closed hierarchy role set.
func GetRolesHandler(c echo.Context) error {
	roles := make([]categoryEntry, 0, len(schema.AllHierarchyRoles))
	for _, role := range schema.AllHierarchyRoles {
		roles = append(roles, categoryEntry{
			Value:       string(role),
			Description: role.Description(),
		})
	}
	return c.JSON(http.StatusOK, map[string][]categoryEntry{"roles": roles})
}

// GetPatternsHandler lists the closed structure pattern set.
func GetPatternsHandler(c echo.Context) error {
	patterns := make([]categoryEntry, 0, len(schema.AllStructurePatterns))
	for _, pattern := range schema.AllStructurePatterns {
		patterns = append(patterns, categoryEntry{
			Value:       string(pattern),
			Description: pattern.Description(),
		})
	}
	return c.JSON(http.StatusOK, map[string][]categoryEntry{"patterns": patterns})
}

// GetDocumentSchemaHandler returns the JSON Schema of the persisted document
// graph, for annotation UIs that render forms from it.
func GetDocumentSchemaHandler(c echo.Context) error {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	return c.JSON(http.StatusOK, reflector.Reflect(&schema.DocumentGraph{}))
}
