package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/indias-got-voice/internal/model"
)

// VoteRepo records votes and keeps participants.total_votes in step.
type VoteRepo struct {
	db *sql.DB
}

func NewVoteRepo(db *sql.DB) *VoteRepo { return &VoteRepo{db: db} }

// Cast records userID's vote for a participant of a live show and
// increments the tally in the same transaction.  It returns the vote and
// the participant's new total.
func (r *VoteRepo) Cast(ctx context.Context, showID, participantID, userID uint64) (model.Vote, uint32, error) {
	vote := model.Vote{ParticipantID: participantID, UserID: userID, ShowID: showID}
	var total uint32
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, err := showStatusTx(ctx, tx, showID, false)
		if err != nil {
			return err
		}
		if status != model.ShowLive {
			return ErrShowNotLive
		}
		if err := requireSeatTx(ctx, tx, showID, userID); err != nil {
			return err
		}
		var pStatus string
		err = tx.QueryRowContext(ctx,
			`SELECT status FROM participants WHERE id = ? AND show_id = ? FOR UPDATE`,
			participantID, showID).Scan(&pStatus)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrParticipantNotFound
			}
			return err
		}
		if !model.OnLeaderboard(pStatus) {
			return ErrParticipantNotEligible
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO votes (participant_id, user_id, show_id) VALUES (?, ?, ?)`,
			participantID, userID, showID)
		if err != nil {
			if isDuplicate(err) {
				return ErrAlreadyVoted
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		vote.ID = uint64(id)
		if _, err := tx.ExecContext(ctx,
			`UPDATE participants SET total_votes = total_votes + 1 WHERE id = ?`, participantID); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`SELECT total_votes FROM participants WHERE id = ?`, participantID).Scan(&total)
	})
	if err != nil {
		return model.Vote{}, 0, err
	}
	vote.VotedAt = time.Now().UTC()
	return vote, total, nil
}

// ListByUserAndShow returns the participant IDs userID has voted for in a
// show.
func (r *VoteRepo) ListByUserAndShow(ctx context.Context, showID, userID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT participant_id FROM votes WHERE show_id = ? AND user_id = ? ORDER BY participant_id`,
		showID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
