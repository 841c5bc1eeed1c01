package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/repository"
)

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	Users        *repository.UserRepo
	Participants *repository.ParticipantRepo
	Log          *zap.Logger
}

func NewProfileHandler(u *repository.UserRepo, p *repository.ParticipantRepo, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{Users: u, Participants: p, Log: log}
}

// Me handles GET /v1/me.
func (h *ProfileHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateMe handles PATCH /v1/me.  Omitted fields keep their value; an empty
// phone or avatar_url clears it.
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body struct {
		FullName  *string `json:"full_name"`
		Phone     *string `json:"phone"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	if body.FullName != nil {
		name := strings.TrimSpace(*body.FullName)
		if name == "" {
			return badRequest(c, "full_name cannot be empty")
		}
		u.FullName = name
	}
	if body.Phone != nil {
		u.Phone = trimmedOrNil(body.Phone)
	}
	if body.AvatarURL != nil {
		u.AvatarURL = trimmedOrNil(body.AvatarURL)
	}
	if err := h.Users.UpdateProfile(ctx, uid, u.FullName, u.Phone, u.AvatarURL); err != nil && !errors.Is(err, repository.ErrNoChange) {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// MyParticipations handles GET /v1/me/participations.
func (h *ProfileHandler) MyParticipations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Participants.ListByUser(ctx, uid)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"participations": list})
}
