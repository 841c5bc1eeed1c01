package model

import "time"

// Vote is a single user's vote for a participant.  A user votes at most
// once per participant.
type Vote struct {
	ID            uint64    `json:"id"`
	ParticipantID uint64    `json:"participant_id"`
	UserID        uint64    `json:"user_id"`
	ShowID        uint64    `json:"show_id"`
	VotedAt       time.Time `json:"voted_at"`
}
