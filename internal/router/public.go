package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/indias-got-voice/internal/handler"
)

// RegisterPublic registers the show browse endpoints.  They need no token
// and sit behind the response cache.
func RegisterPublic(e *echo.Echo, s *handler.ShowHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/shows", s.List)
	g.GET("/shows/:id", s.Get)
}
