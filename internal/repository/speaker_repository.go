package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/indias-got-voice/internal/model"
)

const speakerColumns = `ss.id, ss.show_id, ss.seat_number, ss.user_id, ss.is_muted, ss.joined_at, u.full_name, u.avatar_url`

// SpeakerRepo manages the fixed on-stage seats of each show.
type SpeakerRepo struct {
	db *sql.DB
}

func NewSpeakerRepo(db *sql.DB) *SpeakerRepo { return &SpeakerRepo{db: db} }

// List returns a show's speaker seats in seat order, with the occupant's
// name and avatar when the seat is taken.
func (r *SpeakerRepo) List(ctx context.Context, showID uint64) ([]model.SpeakerSeat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+speakerColumns+`
         FROM speaker_seats ss
         LEFT JOIN users u ON u.id = ss.user_id
         WHERE ss.show_id = ?
         ORDER BY ss.seat_number`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := []model.SpeakerSeat{}
	for rows.Next() {
		s, err := scanSpeaker(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// Get returns a single speaker seat.
func (r *SpeakerRepo) Get(ctx context.Context, showID uint64, seat uint8) (model.SpeakerSeat, error) {
	return scanSpeaker(r.db.QueryRowContext(ctx,
		`SELECT `+speakerColumns+`
         FROM speaker_seats ss
         LEFT JOIN users u ON u.id = ss.user_id
         WHERE ss.show_id = ? AND ss.seat_number = ?`, showID, seat))
}

// Assign puts userID on an empty speaker seat, muted.  The user must be
// seated in the audience and may hold only one speaker seat per show.
func (r *SpeakerRepo) Assign(ctx context.Context, showID uint64, seat uint8, userID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			id       uint64
			occupant sql.NullInt64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT id, user_id FROM speaker_seats WHERE show_id = ? AND seat_number = ? FOR UPDATE`,
			showID, seat).Scan(&id, &occupant)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSpeakerSeatNotFound
			}
			return err
		}
		if occupant.Valid {
			return ErrSpeakerSeatTaken
		}
		if err := requireSeatTx(ctx, tx, showID, userID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE speaker_seats SET user_id = ?, is_muted = 1, joined_at = UTC_TIMESTAMP() WHERE id = ?`,
			userID, id)
		if isDuplicate(err) {
			return ErrAlreadySpeaking
		}
		return err
	})
}

// Vacate empties a speaker seat and returns the user who held it.  It
// returns ErrNoChange when the seat was already empty.
func (r *SpeakerRepo) Vacate(ctx context.Context, showID uint64, seat uint8) (uint64, error) {
	var prev uint64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var occupant sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT user_id FROM speaker_seats WHERE show_id = ? AND seat_number = ? FOR UPDATE`,
			showID, seat).Scan(&occupant)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSpeakerSeatNotFound
			}
			return err
		}
		if !occupant.Valid {
			return ErrNoChange
		}
		prev = uint64(occupant.Int64)
		_, err = tx.ExecContext(ctx,
			`UPDATE speaker_seats SET user_id = NULL, is_muted = 1, joined_at = NULL WHERE show_id = ? AND seat_number = ?`,
			showID, seat)
		return err
	})
	return prev, err
}

// SetMute updates the mute flag of a seat still held by occupant.  It
// returns ErrSpeakerSeatChanged when the seat was vacated or reassigned
// since the caller read it.
func (r *SpeakerRepo) SetMute(ctx context.Context, showID uint64, seat uint8, occupant uint64, muted bool) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var current sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT user_id FROM speaker_seats WHERE show_id = ? AND seat_number = ? FOR UPDATE`,
			showID, seat).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSpeakerSeatNotFound
			}
			return err
		}
		if !current.Valid || uint64(current.Int64) != occupant {
			return ErrSpeakerSeatChanged
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE speaker_seats SET is_muted = ? WHERE show_id = ? AND seat_number = ?`,
			muted, showID, seat)
		return err
	})
}

func scanSpeaker(row scanner) (model.SpeakerSeat, error) {
	var s model.SpeakerSeat
	err := row.Scan(&s.ID, &s.ShowID, &s.SeatNumber, &s.UserID, &s.IsMuted, &s.JoinedAt, &s.FullName, &s.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SpeakerSeat{}, ErrSpeakerSeatNotFound
	}
	return s, err
}
