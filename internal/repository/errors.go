// Package repository defines error types that are reused across multiple
// repositories.  Handlers map these sentinels onto HTTP statuses.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller may not act on a resource.
// Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrNoChange indicates an update that would leave the row as it is.
var ErrNoChange = errors.New("no change")

// Not found errors.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrShowNotFound        = errors.New("show not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrSpeakerSeatNotFound = errors.New("speaker seat not found")
	ErrNotSeated           = errors.New("not seated in this show")
	ErrTokenInvalid        = errors.New("refresh token invalid or expired")
)

// Uniqueness violations.
var (
	ErrEmailExists      = errors.New("email already exists")
	ErrAlreadyApplied   = errors.New("already applied to this show")
	ErrAlreadySeated    = errors.New("already seated in this show")
	ErrAlreadyVoted     = errors.New("already voted for this participant")
	ErrSpeakerSeatTaken = errors.New("speaker seat is occupied")
	ErrAlreadySpeaking  = errors.New("user already holds a speaker seat")
)

// State errors.
var (
	ErrShowFull               = errors.New("show is full")
	ErrShowNotLive            = errors.New("show is not live")
	ErrShowEnded              = errors.New("show has ended")
	ErrShowNotUpcoming        = errors.New("show is no longer accepting applications")
	ErrParticipantNotEligible = errors.New("participant is not approved")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrSpeakerSeatChanged     = errors.New("speaker seat changed hands")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
