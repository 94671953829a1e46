// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Qiyd81/flightsurety-2/internal/handler"
	"github.com/Qiyd81/flightsurety-2/internal/middleware"
	"github.com/Qiyd81/flightsurety-2/internal/repository"
)

// RegisterRoutes registers the unauthenticated probe endpoints.  /readyz
// is only mounted when db is non-nil.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers credential exchange under /v1/auth and the
// identity endpoint under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout takes a refresh token in the body or a bearer header, so it
	// sits outside JWTAuth
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleOwner, repository.RoleAccount))
}
