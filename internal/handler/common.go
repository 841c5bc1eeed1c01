package handler // handler defines the HTTP handlers of the API

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/middleware"
	"github.com/iliyamo/indias-got-voice/internal/queue"
	"github.com/iliyamo/indias-got-voice/internal/repository"
	"github.com/iliyamo/indias-got-voice/internal/service"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

// notifier is implemented by live.Hub.
type notifier interface {
	Notify(showID uint64)
	CloseShow(showID uint64)
}

func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// errorStatus maps repository sentinels onto HTTP statuses.  It reports
// false for unexpected errors.
func errorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrShowNotFound),
		errors.Is(err, repository.ErrParticipantNotFound),
		errors.Is(err, repository.ErrCommentNotFound),
		errors.Is(err, repository.ErrSpeakerSeatNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, repository.ErrForbidden),
		errors.Is(err, repository.ErrNotSeated):
		return http.StatusForbidden, true
	case errors.Is(err, repository.ErrTokenInvalid):
		return http.StatusUnauthorized, true
	case errors.Is(err, repository.ErrNoChange),
		errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrAlreadyApplied),
		errors.Is(err, repository.ErrAlreadySeated),
		errors.Is(err, repository.ErrAlreadyVoted),
		errors.Is(err, repository.ErrSpeakerSeatTaken),
		errors.Is(err, repository.ErrAlreadySpeaking),
		errors.Is(err, repository.ErrShowFull),
		errors.Is(err, repository.ErrShowNotLive),
		errors.Is(err, repository.ErrShowEnded),
		errors.Is(err, repository.ErrShowNotUpcoming),
		errors.Is(err, repository.ErrParticipantNotEligible),
		errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, repository.ErrSpeakerSeatChanged):
		return http.StatusConflict, true
	}
	return 0, false
}

// respondErr writes the JSON error for err.  Unexpected errors are logged
// and hidden behind a generic 500.
func respondErr(c echo.Context, log *zap.Logger, err error) error {
	if status, ok := errorStatus(err); ok {
		return c.JSON(status, echo.Map{"error": err.Error()})
	}
	log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.String("request_id", middleware.RequestIDFrom(c)),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// publish sends ev after the change it describes has committed.  Failures
// are logged only.
func publish(c echo.Context, pub service.Publisher, log *zap.Logger, ev queue.Event) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 5*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("publish event failed", zap.String("type", ev.Type), zap.Uint64("show_id", ev.ShowID), zap.Error(err))
	}
}
