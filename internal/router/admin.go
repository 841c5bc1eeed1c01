package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/indias-got-voice/internal/handler"
	"github.com/iliyamo/indias-got-voice/internal/middleware"
	"github.com/iliyamo/indias-got-voice/internal/model"
)

// RegisterAdmin registers the moderation endpoints under /v1/admin.  All
// routes require a valid JWT and the admin role.
func RegisterAdmin(e *echo.Echo, s *handler.ShowHandler, p *handler.ParticipantHandler, l *handler.LiveHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.UserTypeAdmin),
	)

	// ---- Shows ----
	g.GET("/shows", s.ListAll)
	g.POST("/shows", s.Create)
	g.PATCH("/shows/:id/status", s.UpdateStatus)
	g.DELETE("/shows/:id", s.Delete)

	// ---- Speaker seats ----
	g.PUT("/shows/:id/speakers/:seat", l.AssignSpeaker)
	g.DELETE("/shows/:id/speakers/:seat", l.VacateSpeaker)

	// ---- Participants ----
	g.GET("/participants", p.ListAll)
	g.PATCH("/participants/:id/status", p.Review)

	// ---- Comments ----
	g.DELETE("/comments/:id", l.DeleteComment)
}
