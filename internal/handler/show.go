package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/model"
	"github.com/iliyamo/indias-got-voice/internal/queue"
	"github.com/iliyamo/indias-got-voice/internal/repository"
	"github.com/iliyamo/indias-got-voice/internal/service"
)

// ShowHandler serves the public show list and the admin show endpoints.
type ShowHandler struct {
	Shows  *repository.ShowRepo
	Events service.Publisher
	Hub    notifier
	// PurgeList drops cached show list responses after a change.
	PurgeList func(ctx context.Context) error
	Log       *zap.Logger
}

// List handles GET /v1/shows.
func (h *ShowHandler) List(c echo.Context) error {
	status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && !model.ValidShowStatus(status) {
		return badRequest(c, "invalid status")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	shows, err := h.Shows.List(ctx, status)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": shows})
}

// Get handles GET /v1/shows/:id.
func (h *ShowHandler) Get(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	s, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ListAll handles GET /v1/admin/shows.
func (h *ShowHandler) ListAll(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	shows, err := h.Shows.ListAll(ctx)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": shows})
}

// Create handles POST /v1/admin/shows.
func (h *ShowHandler) Create(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		BannerURL   *string `json:"banner_url"`
		ScheduledAt string  `json:"scheduled_at"`
		TotalSeats  *int64  `json:"total_seats"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return badRequest(c, "title is required")
	}
	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(body.ScheduledAt))
	if err != nil {
		return badRequest(c, "scheduled_at must be RFC3339")
	}
	seats := int64(model.DefaultTotalSeats)
	if body.TotalSeats != nil {
		seats = *body.TotalSeats
	}
	if seats <= 0 || seats > 1_000_000 {
		return badRequest(c, "total_seats must be between 1 and 1000000")
	}

	s := model.Show{
		Title:       title,
		Description: strings.TrimSpace(body.Description),
		BannerURL:   trimmedOrNil(body.BannerURL),
		ScheduledAt: scheduledAt.UTC(),
		TotalSeats:  uint32(seats),
		CreatedBy:   &adminID,
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Shows.Create(ctx, &s); err != nil {
		return respondErr(c, h.Log, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, s)
}

// UpdateStatus handles PATCH /v1/admin/shows/:id/status.
func (h *ShowHandler) UpdateStatus(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	status := strings.ToLower(strings.TrimSpace(body.Status))
	if !model.ValidShowStatus(status) {
		return badRequest(c, "status must be upcoming, live or ended")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	s, err := h.Shows.UpdateStatus(ctx, id, status)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	h.purge(ctx)
	if h.Hub != nil {
		h.Hub.Notify(id)
	}
	ev := queue.NewEvent(queue.TypeShowStatusChanged, id, adminID)
	ev.Status = status
	publish(c, h.Events, h.Log, ev)
	return c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /v1/admin/shows/:id.
func (h *ShowHandler) Delete(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Shows.Delete(ctx, id); err != nil {
		return respondErr(c, h.Log, err)
	}
	if h.Hub != nil {
		h.Hub.CloseShow(id)
	}
	h.purge(ctx)
	return c.NoContent(http.StatusNoContent)
}

func (h *ShowHandler) purge(ctx context.Context) {
	if h.PurgeList == nil {
		return
	}
	if err := h.PurgeList(ctx); err != nil {
		h.Log.Warn("purge show list cache", zap.Error(err))
	}
}
