package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Qiyd81/flightsurety-2/internal/handler"
	"github.com/Qiyd81/flightsurety-2/internal/middleware"
	"github.com/Qiyd81/flightsurety-2/internal/repository"
)

// RegisterOwner registers the operational switch.  The engine checks the
// caller against the configured owner as well.
func RegisterOwner(e *echo.Echo, h *handler.SuretyHandler, jwtSecret string) {
	e.PUT("/v1/operational", h.SetOperational,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleOwner))
}
