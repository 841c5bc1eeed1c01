package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/indias-got-voice/internal/model"
)

const participantColumns = `p.id, p.user_id, p.show_id, p.stage_name, p.bio, p.voice_clip_url, p.status, p.performance_order, p.total_votes, p.created_at, p.updated_at`

// ParticipantRepo stores performer applications and their vote tallies.
type ParticipantRepo struct {
	db *sql.DB
}

func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

// Apply inserts a pending application.  The show must still be upcoming and
// a user applies at most once per show.
func (r *ParticipantRepo) Apply(ctx context.Context, p *model.Participant) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, err := showStatusTx(ctx, tx, p.ShowID, false)
		if err != nil {
			return err
		}
		if status != model.ShowUpcoming {
			return ErrShowNotUpcoming
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO participants (user_id, show_id, stage_name, bio, voice_clip_url) VALUES (?, ?, ?, ?, ?)`,
			p.UserID, p.ShowID, p.StageName, p.Bio, p.VoiceClipURL)
		if err != nil {
			if isDuplicate(err) {
				return ErrAlreadyApplied
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err := scanParticipant(tx.QueryRowContext(ctx,
			`SELECT `+participantColumns+` FROM participants p WHERE p.id = ?`, id))
		if err != nil {
			return err
		}
		*p = created
		return nil
	})
}

// ListByUser returns the caller's applications with show details, newest
// first.
func (r *ParticipantRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Participant, error) {
	const q = `SELECT ` + participantColumns + `, s.title, s.scheduled_at, s.status
               FROM participants p
               JOIN shows s ON s.id = p.show_id
               WHERE p.user_id = ?
               ORDER BY p.created_at DESC, p.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(participantDest(&p, &p.ShowTitle, &p.ShowScheduledAt, &p.ShowStatus)...); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ListAll returns every application with applicant name and show title,
// newest first.  An empty status lists all statuses.
func (r *ParticipantRepo) ListAll(ctx context.Context, status string) ([]model.Participant, error) {
	q := `SELECT ` + participantColumns + `, u.full_name, u.avatar_url, s.title, s.scheduled_at, s.status
          FROM participants p
          JOIN users u ON u.id = p.user_id
          JOIN shows s ON s.id = p.show_id`
	var args []any
	if status != "" {
		q += ` WHERE p.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY p.created_at DESC, p.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(participantDest(&p, &p.FullName, &p.AvatarURL, &p.ShowTitle, &p.ShowScheduledAt, &p.ShowStatus)...); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Leaderboard returns a show's approved and performing participants ordered
// by votes, ties broken by application order.
func (r *ParticipantRepo) Leaderboard(ctx context.Context, showID uint64) ([]model.Participant, error) {
	const q = `SELECT ` + participantColumns + `, u.full_name, u.avatar_url
               FROM participants p
               JOIN users u ON u.id = p.user_id
               WHERE p.show_id = ? AND p.status IN ('approved', 'performing')
               ORDER BY p.total_votes DESC, p.id ASC`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(participantDest(&p, &p.FullName, &p.AvatarURL)...); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Review applies an admin moderation decision.  A nil order keeps the
// current performance order.  Re-sending the current status is only
// accepted when it changes the order.
func (r *ParticipantRepo) Review(ctx context.Context, id uint64, status string, order *uint32) (model.Participant, error) {
	var updated model.Participant
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM participants WHERE id = ? FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrParticipantNotFound
			}
			return err
		}
		switch {
		case current == status && order == nil:
			return ErrNoChange
		case current != status && !model.CanReview(current, status):
			return ErrInvalidTransition
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE participants SET status = ?, performance_order = COALESCE(?, performance_order) WHERE id = ?`,
			status, order, id); err != nil {
			return err
		}
		updated, err = scanParticipant(tx.QueryRowContext(ctx,
			`SELECT `+participantColumns+` FROM participants p WHERE p.id = ?`, id))
		return err
	})
	return updated, err
}

func participantDest(p *model.Participant, extra ...any) []any {
	return append([]any{&p.ID, &p.UserID, &p.ShowID, &p.StageName, &p.Bio, &p.VoiceClipURL,
		&p.Status, &p.PerformanceOrder, &p.TotalVotes, &p.CreatedAt, &p.UpdatedAt}, extra...)
}

func scanParticipant(row scanner) (model.Participant, error) {
	var p model.Participant
	err := row.Scan(participantDest(&p)...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Participant{}, ErrParticipantNotFound
	}
	return p, err
}
