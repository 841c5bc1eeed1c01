package model

// LiveSnapshot is everything an audience member's screen shows for a live
// show.  The public part (show, leaderboard, counts, speakers, comments) is
// the same for every viewer and is what the WebSocket feed pushes; MySeat
// and MyVotes are filled only on the per-user REST snapshot.
type LiveSnapshot struct {
	Show        Show          `json:"show"`
	Leaderboard []Participant `json:"leaderboard"`
	ViewerCount int           `json:"viewer_count"`
	SeatsLeft   int           `json:"seats_left"`
	Speakers    []SpeakerSeat `json:"speakers"`
	Comments    []ShowComment `json:"comments,omitempty"`
	MySeat      *VirtualSeat  `json:"my_seat,omitempty"`
	MyVotes     []uint64      `json:"my_votes,omitempty"`
}
