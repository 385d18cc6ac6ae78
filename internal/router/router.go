// Package router maps HTTP routes to handlers and declares which ones
// require an authenticated identity.  The gate runs on every request;
// RequireAuth is attached only to the routes listed as protected here.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avetisk/fullstack-auth/internal/handler"
	"github.com/avetisk/fullstack-auth/internal/middleware"
)

// Register wires all routes.  gate is the identity-resolution middleware
// applied to the whole pipeline; limiter guards the credentialed auth
// endpoints and may be a pass-through.
func Register(e *echo.Echo, a *handler.AuthHandler, gate, limiter echo.MiddlewareFunc) {
	e.Use(gate)

	// public
	e.GET("/healthz", handler.Health)
	e.GET("/api/user", handler.SampleUser)
	e.GET("/api/message", handler.SampleMessage)

	// session lifecycle
	g := e.Group("/api/auth", limiter)
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	// protected: rejection happens here, not in the gate
	g.POST("/logout", a.Logout, middleware.RequireAuth())
	g.GET("/me", a.Me, middleware.RequireAuth())
}
