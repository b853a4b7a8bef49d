package router // package router defines how HTTP routes are registered for the gateway

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/hotel-floor-reservation/internal/handler"    // gateway handlers
	"github.com/iliyamo/hotel-floor-reservation/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/hotel-floor-reservation/internal/utils"      // operator role name
)

// RegisterRoutes registers non-authenticated routes on the provided Echo
// instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterGateway registers the reservation endpoints under /v1.  When
// jwtSecret is non-empty every /v1 route requires an operator token.
// The optional limit middlewares run after authentication so they can
// key on the token subject.
func RegisterGateway(e *echo.Echo, gw *handler.GatewayHandler, jwtSecret string, limit ...echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if jwtSecret != "" {
		g.Use(middleware.JWTAuth(jwtSecret))
		g.Use(middleware.RequireRole(utils.RoleOperator))
	}
	g.Use(limit...)

	g.POST("/requests", gw.Submit)
	g.GET("/floors/:floor", gw.ShowFloor)
}
