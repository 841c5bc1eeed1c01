// Package queue defines the show event payloads exchanged over RabbitMQ and
// the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeVoteCast            = "vote.cast"
	TypeShowStatusChanged   = "show.status_changed"
	TypeParticipantReviewed = "participant.reviewed"
	TypeSpeakerChanged      = "speaker.changed"
)

// Event is published after a state change commits.  Only the fields that
// apply to Type are set.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	ShowID        uint64    `json:"show_id"`
	UserID        uint64    `json:"user_id"` // actor
	ParticipantID uint64    `json:"participant_id,omitempty"`
	TotalVotes    uint32    `json:"total_votes,omitempty"`
	Status        string    `json:"status,omitempty"`
	SeatNumber    uint8     `json:"seat_number,omitempty"`
	SpeakerID     uint64    `json:"speaker_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent stamps a fresh id and the current time.
func NewEvent(typ string, showID, userID uint64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ShowID:     showID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}
