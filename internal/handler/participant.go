package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/model"
	"github.com/iliyamo/indias-got-voice/internal/queue"
	"github.com/iliyamo/indias-got-voice/internal/repository"
	"github.com/iliyamo/indias-got-voice/internal/service"
)

// ParticipantHandler serves performer applications and their moderation.
type ParticipantHandler struct {
	Participants *repository.ParticipantRepo
	Events       service.Publisher
	Hub          notifier
	Log          *zap.Logger
}

// Apply handles POST /v1/shows/:id/participants.
func (h *ParticipantHandler) Apply(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	var body struct {
		StageName    string  `json:"stage_name"`
		Bio          *string `json:"bio"`
		VoiceClipURL string  `json:"voice_clip_url"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	p := model.Participant{
		UserID:       uid,
		ShowID:       showID,
		StageName:    strings.TrimSpace(body.StageName),
		Bio:          trimmedOrNil(body.Bio),
		VoiceClipURL: strings.TrimSpace(body.VoiceClipURL),
	}
	if p.StageName == "" || p.VoiceClipURL == "" {
		return badRequest(c, "stage_name and voice_clip_url are required")
	}
	if len(p.StageName) > 120 {
		return badRequest(c, "stage_name too long")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Participants.Apply(ctx, &p); err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListAll handles GET /v1/admin/participants.
func (h *ParticipantHandler) ListAll(c echo.Context) error {
	status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	switch status {
	case "", model.ParticipantPending, model.ParticipantApproved, model.ParticipantRejected, model.ParticipantPerforming:
	default:
		return badRequest(c, "invalid status")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Participants.ListAll(ctx, status)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"participants": list})
}

// Review handles PATCH /v1/admin/participants/:id/status.
func (h *ParticipantHandler) Review(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid participant id")
	}
	var body struct {
		Status           string  `json:"status"`
		PerformanceOrder *uint32 `json:"performance_order"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	status := strings.ToLower(strings.TrimSpace(body.Status))
	switch status {
	case model.ParticipantApproved, model.ParticipantRejected, model.ParticipantPerforming:
	default:
		return badRequest(c, "status must be approved, rejected or performing")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Participants.Review(ctx, id, status, body.PerformanceOrder)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	if h.Hub != nil {
		h.Hub.Notify(p.ShowID)
	}
	ev := queue.NewEvent(queue.TypeParticipantReviewed, p.ShowID, adminID)
	ev.ParticipantID = p.ID
	ev.Status = p.Status
	publish(c, h.Events, h.Log, ev)
	return c.JSON(http.StatusOK, p)
}
