package model

import "time"

// VirtualSeat is a viewer's place in a show's audience.  Seats count viewers
// and cap attendance at Show.TotalSeats.
type VirtualSeat struct {
	ID         uint64    `json:"id"`
	ShowID     uint64    `json:"show_id"`
	UserID     uint64    `json:"user_id"`
	SeatNumber uint32    `json:"seat_number"`
	JoinedAt   time.Time `json:"joined_at"`
}

// SpeakerSeat is one of the fixed on-stage slots of a show.  UserID is nil
// while the slot is empty.
type SpeakerSeat struct {
	ID         uint64     `json:"id"`
	ShowID     uint64     `json:"show_id"`
	SeatNumber uint8      `json:"seat_number"`
	UserID     *uint64    `json:"user_id,omitempty"`
	IsMuted    bool       `json:"is_muted"`
	JoinedAt   *time.Time `json:"joined_at,omitempty"`
	FullName   *string    `json:"full_name,omitempty"`
	AvatarURL  *string    `json:"avatar_url,omitempty"`
}
