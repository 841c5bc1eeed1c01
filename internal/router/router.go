package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/indias-got-voice/internal/handler"
	"github.com/iliyamo/indias-got-voice/internal/middleware"
)

// RegisterRoutes registers the health probes.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// caller's own profile under /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, p *handler.ProfileHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout accepts either a refresh token in the body or a bearer token
	g.POST("/logout", a.Logout)

	me := e.Group("/v1/me", middleware.JWTAuth(jwtSecret))
	me.GET("", p.Me)
	me.PATCH("", p.UpdateMe)
	me.GET("/participations", p.MyParticipations)
}
