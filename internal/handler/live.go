package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/live"
	"github.com/iliyamo/indias-got-voice/internal/middleware"
	"github.com/iliyamo/indias-got-voice/internal/model"
	"github.com/iliyamo/indias-got-voice/internal/queue"
	"github.com/iliyamo/indias-got-voice/internal/repository"
	"github.com/iliyamo/indias-got-voice/internal/service"
)

const maxCommentPage = 100

// LiveHandler serves the live show screen: seats, votes, speaker seats and
// chat.
type LiveHandler struct {
	Source       live.Source
	Shows        *repository.ShowRepo
	Seats        *repository.SeatRepo
	Votes        *repository.VoteRepo
	Speakers     *repository.SpeakerRepo
	Comments     *repository.CommentRepo
	CommentLimit int
	// ChatInterval and LiveInterval are advertised to polling clients.
	ChatInterval time.Duration
	LiveInterval time.Duration
	Events       service.Publisher
	Hub          *live.Hub
	Log          *zap.Logger
}

// pollHint tells polling clients when to ask again.
func pollHint(c echo.Context, d time.Duration) {
	if d > 0 {
		c.Response().Header().Set("X-Poll-Interval", strconv.Itoa(int(d/time.Millisecond)))
	}
}

func (h *LiveHandler) notify(showID uint64) {
	if h.Hub != nil {
		h.Hub.Notify(showID)
	}
}

// speakerSeat parses the :seat path parameter.
func (h *LiveHandler) speakerSeat(c echo.Context) (uint8, bool) {
	n, err := strconv.Atoi(c.Param("seat"))
	if err != nil || n < 1 || n > model.SpeakerSeatCount {
		return 0, false
	}
	return uint8(n), true
}

// Snapshot handles GET /v1/shows/:id/live.
func (h *LiveHandler) Snapshot(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	snap, err := h.Source.Snapshot(ctx, showID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	seat, err := h.Seats.GetForUser(ctx, showID, uid)
	switch {
	case err == nil:
		snap.MySeat = &seat
	case !errors.Is(err, repository.ErrNotSeated):
		return respondErr(c, h.Log, err)
	}
	if snap.MyVotes, err = h.Votes.ListByUserAndShow(ctx, showID, uid); err != nil {
		return respondErr(c, h.Log, err)
	}
	pollHint(c, h.LiveInterval)
	return c.JSON(http.StatusOK, snap)
}

// JoinSeat handles POST /v1/shows/:id/seat.
func (h *LiveHandler) JoinSeat(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	seat, err := h.Seats.Join(ctx, showID, uid)
	if errors.Is(err, repository.ErrAlreadySeated) {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "seat": seat})
	}
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	h.notify(showID)
	return c.JSON(http.StatusCreated, seat)
}

// LeaveSeat handles DELETE /v1/shows/:id/seat.
func (h *LiveHandler) LeaveSeat(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	speaker, err := h.Seats.Leave(ctx, showID, uid)
	if errors.Is(err, repository.ErrNotSeated) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	h.notify(showID)
	if speaker > 0 {
		ev := queue.NewEvent(queue.TypeSpeakerChanged, showID, uid)
		ev.SeatNumber = speaker
		publish(c, h.Events, h.Log, ev)
	}
	return c.NoContent(http.StatusNoContent)
}

// Vote handles POST /v1/shows/:id/votes.
func (h *LiveHandler) Vote(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	var body struct {
		ParticipantID uint64 `json:"participant_id"`
	}
	if err := c.Bind(&body); err != nil || body.ParticipantID == 0 {
		return badRequest(c, "participant_id is required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	vote, total, err := h.Votes.Cast(ctx, showID, body.ParticipantID, uid)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	h.notify(showID)
	ev := queue.NewEvent(queue.TypeVoteCast, showID, uid)
	ev.ParticipantID = body.ParticipantID
	ev.TotalVotes = total
	publish(c, h.Events, h.Log, ev)
	return c.JSON(http.StatusCreated, echo.Map{"vote": vote, "total_votes": total})
}

// ListSpeakers handles GET /v1/shows/:id/speakers.
func (h *LiveHandler) ListSpeakers(c echo.Context) error {
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if _, err := h.Shows.GetByID(ctx, showID); err != nil {
		return respondErr(c, h.Log, err)
	}
	seats, err := h.Speakers.List(ctx, showID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"speakers": seats})
}

// AssignSpeaker handles PUT /v1/admin/shows/:id/speakers/:seat.
func (h *LiveHandler) AssignSpeaker(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	seat, ok := h.speakerSeat(c)
	if !ok {
		return badRequest(c, "invalid speaker seat")
	}
	var body struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.Bind(&body); err != nil || body.UserID == 0 {
		return badRequest(c, "user_id is required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Speakers.Assign(ctx, showID, seat, body.UserID); err != nil {
		return respondErr(c, h.Log, err)
	}
	return h.speakerChanged(c, showID, seat, adminID, body.UserID)
}

// VacateSpeaker handles DELETE /v1/admin/shows/:id/speakers/:seat.
func (h *LiveHandler) VacateSpeaker(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	seat, ok := h.speakerSeat(c)
	if !ok {
		return badRequest(c, "invalid speaker seat")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	prev, err := h.Speakers.Vacate(ctx, showID, seat)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return h.speakerChanged(c, showID, seat, adminID, prev)
}

// MuteSpeaker handles PATCH /v1/shows/:id/speakers/:seat/mute.  Admins may
// mute any seat; a speaker only their own.
func (h *LiveHandler) MuteSpeaker(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	seat, ok := h.speakerSeat(c)
	if !ok {
		return badRequest(c, "invalid speaker seat")
	}
	var body struct {
		IsMuted *bool `json:"is_muted"`
	}
	if err := c.Bind(&body); err != nil || body.IsMuted == nil {
		return badRequest(c, "is_muted is required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	current, err := h.Speakers.Get(ctx, showID, seat)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	if current.UserID == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "speaker seat is empty"})
	}
	if middleware.Role(c) != model.UserTypeAdmin && *current.UserID != uid {
		return respondErr(c, h.Log, repository.ErrForbidden)
	}
	if err := h.Speakers.SetMute(ctx, showID, seat, *current.UserID, *body.IsMuted); err != nil {
		return respondErr(c, h.Log, err)
	}
	return h.speakerChanged(c, showID, seat, uid, *current.UserID)
}

// speakerChanged refreshes the live feed, publishes speaker.changed and
// responds with the seat's current state.
func (h *LiveHandler) speakerChanged(c echo.Context, showID uint64, seat uint8, actor, speaker uint64) error {
	h.notify(showID)
	ev := queue.NewEvent(queue.TypeSpeakerChanged, showID, actor)
	ev.SeatNumber = seat
	ev.SpeakerID = speaker
	publish(c, h.Events, h.Log, ev)

	ctx, cancel := requestCtx(c)
	defer cancel()
	s, err := h.Speakers.Get(ctx, showID, seat)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ListComments handles GET /v1/shows/:id/comments.
func (h *LiveHandler) ListComments(c echo.Context) error {
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	var afterID uint64
	if v := c.QueryParam("after_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid after_id")
		}
		afterID = n
	}
	limit := h.CommentLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return badRequest(c, "invalid limit")
		}
		limit = n
	}
	limit = min(limit, maxCommentPage)

	ctx, cancel := requestCtx(c)
	defer cancel()
	comments, err := h.Comments.List(ctx, showID, afterID, limit)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	pollHint(c, h.ChatInterval)
	return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}

// PostComment handles POST /v1/shows/:id/comments.
func (h *LiveHandler) PostComment(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	var body struct {
		CommentText string `json:"comment_text"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	text := strings.TrimSpace(body.CommentText)
	if n := utf8.RuneCountInString(text); n == 0 || n > model.MaxCommentLength {
		return badRequest(c, "comment_text must be 1-500 characters")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	cm := model.ShowComment{ShowID: showID, UserID: uid, CommentText: text}
	if err := h.Comments.Create(ctx, &cm); err != nil {
		return respondErr(c, h.Log, err)
	}
	h.notify(showID)
	return c.JSON(http.StatusCreated, cm)
}

// DeleteComment handles DELETE /v1/admin/comments/:id.
func (h *LiveHandler) DeleteComment(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid comment id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Comments.Delete(ctx, id); err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
