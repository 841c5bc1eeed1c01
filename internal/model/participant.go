package model

import "time"

// Participant statuses.
const (
	ParticipantPending    = "pending"
	ParticipantApproved   = "approved"
	ParticipantRejected   = "rejected"
	ParticipantPerforming = "performing"
)

// Participant is an application to perform in a show.  The joined fields
// are filled by listing queries and left empty otherwise.
type Participant struct {
	ID               uint64    `json:"id"`
	UserID           uint64    `json:"user_id"`
	ShowID           uint64    `json:"show_id"`
	StageName        string    `json:"stage_name"`
	Bio              *string   `json:"bio,omitempty"`
	VoiceClipURL     string    `json:"voice_clip_url"`
	Status           string    `json:"status"`
	PerformanceOrder *uint32   `json:"performance_order,omitempty"`
	TotalVotes       uint32    `json:"total_votes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	FullName        string     `json:"full_name,omitempty"`
	AvatarURL       *string    `json:"avatar_url,omitempty"`
	ShowTitle       string     `json:"show_title,omitempty"`
	ShowScheduledAt *time.Time `json:"show_scheduled_at,omitempty"`
	ShowStatus      string     `json:"show_status,omitempty"`
}

var participantMoves = map[string][]string{
	ParticipantPending:    {ParticipantApproved, ParticipantRejected},
	ParticipantApproved:   {ParticipantRejected, ParticipantPerforming},
	ParticipantPerforming: {ParticipantApproved},
}

// CanReview reports whether an admin may move an application from one
// status to another.
func CanReview(from, to string) bool {
	for _, s := range participantMoves[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OnLeaderboard reports whether a participant with the given status is
// visible to the audience and can receive votes.
func OnLeaderboard(status string) bool {
	return status == ParticipantApproved || status == ParticipantPerforming
}
