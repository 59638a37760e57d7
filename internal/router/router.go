package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/handler"
)

// RegisterRoutes registers routes that require no authentication and no
// handler state.  Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
