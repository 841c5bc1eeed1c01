package model

import "time"

// Show statuses, in lifecycle order.
const (
	ShowUpcoming = "upcoming"
	ShowLive     = "live"
	ShowEnded    = "ended"
)

// DefaultTotalSeats is the audience cap used when an admin omits one.
const DefaultTotalSeats = 1000

// SpeakerSeatCount is the number of on-stage slots every show has.
const SpeakerSeatCount = 10

// Show is a scheduled live performance event.
//
// Fields:
//  Status      – upcoming, live or ended; only ever moves forward.
//  ScheduledAt – announced start time.
//  StartedAt   – stamped the first time the show goes live.
//  EndedAt     – stamped the first time the show ends.
//  TotalSeats  – audience cap for virtual seats.
//  CreatedBy   – admin who created the show (nil once that user is deleted).
type Show struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	BannerURL   *string    `json:"banner_url,omitempty"`
	Status      string     `json:"status"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	TotalSeats  uint32     `json:"total_seats"`
	CreatedBy   *uint64    `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

var showRank = map[string]int{ShowUpcoming: 0, ShowLive: 1, ShowEnded: 2}

// ValidShowStatus reports whether s is a known show status.
func ValidShowStatus(s string) bool {
	_, ok := showRank[s]
	return ok
}

// CanTransition reports whether a show may move from one status to another.
// Shows move forward exactly one step, so a show always goes live before it
// ends.
func CanTransition(from, to string) bool {
	f, ok1 := showRank[from]
	t, ok2 := showRank[to]
	return ok1 && ok2 && t == f+1
}
