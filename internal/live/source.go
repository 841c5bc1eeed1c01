package live

import (
	"context"
	"fmt"

	"github.com/iliyamo/indias-got-voice/internal/model"
	"github.com/iliyamo/indias-got-voice/internal/repository"
)

// RepoSource assembles snapshots from the repositories.
type RepoSource struct {
	Shows        *repository.ShowRepo
	Participants *repository.ParticipantRepo
	Seats        *repository.SeatRepo
	Speakers     *repository.SpeakerRepo
	Comments     *repository.CommentRepo
	CommentLimit int
}

// Snapshot returns the part of a live screen every viewer shares: the show,
// its leaderboard, viewer count, free seats, speaker seats and latest
// comments.
func (s *RepoSource) Snapshot(ctx context.Context, showID uint64) (model.LiveSnapshot, error) {
	show, err := s.Shows.GetByID(ctx, showID)
	if err != nil {
		return model.LiveSnapshot{}, err
	}
	board, err := s.Participants.Leaderboard(ctx, showID)
	if err != nil {
		return model.LiveSnapshot{}, fmt.Errorf("leaderboard: %w", err)
	}
	viewers, err := s.Seats.Count(ctx, showID)
	if err != nil {
		return model.LiveSnapshot{}, fmt.Errorf("viewer count: %w", err)
	}
	speakers, err := s.Speakers.List(ctx, showID)
	if err != nil {
		return model.LiveSnapshot{}, fmt.Errorf("speakers: %w", err)
	}
	snap := model.LiveSnapshot{
		Show:        show,
		Leaderboard: board,
		ViewerCount: viewers,
		SeatsLeft:   max(int(show.TotalSeats)-viewers, 0),
		Speakers:    speakers,
	}
	if s.Comments != nil && s.CommentLimit > 0 {
		if snap.Comments, err = s.Comments.List(ctx, showID, 0, s.CommentLimit); err != nil {
			return model.LiveSnapshot{}, fmt.Errorf("comments: %w", err)
		}
	}
	return snap, nil
}
