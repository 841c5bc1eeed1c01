package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/indias-got-voice/internal/handler"
	"github.com/iliyamo/indias-got-voice/internal/middleware"
	"github.com/iliyamo/indias-got-voice/internal/model"
)

// RegisterLive registers the signed-in audience endpoints of a show.
// Seat, vote and comment writes go through limit.
func RegisterLive(e *echo.Echo, l *handler.LiveHandler, p *handler.ParticipantHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/shows/:id", middleware.JWTAuth(jwtSecret))

	g.GET("/live", l.Snapshot)
	g.GET("/live/ws", l.ServeWS)

	g.POST("/seat", l.JoinSeat, limit)
	g.DELETE("/seat", l.LeaveSeat, limit)
	g.POST("/votes", l.Vote, limit)

	g.GET("/speakers", l.ListSpeakers)
	g.PATCH("/speakers/:seat/mute", l.MuteSpeaker)

	g.GET("/comments", l.ListComments)
	g.POST("/comments", l.PostComment, limit)

	g.POST("/participants", p.Apply, middleware.RequireRole(model.UserTypeParticipant))
}
