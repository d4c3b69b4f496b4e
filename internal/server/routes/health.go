package routes

import (
	"net/http"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func HealthHandler(c echo.Context) error {
	conn := c.(*middleware.AppContext).App.DBConn
	if err := conn.Ping(c.Request().Context()); err != nil {
		return c.String(http.StatusServiceUnavailable, "database unreachable")
	}
	return c.String(http.StatusOK, "OK")
}
