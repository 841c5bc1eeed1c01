package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/indias-got-voice/internal/model"
)

// SeatRepo manages the virtual audience of a show.
type SeatRepo struct {
	db *sql.DB
}

func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// lowestFreeSeat finds the smallest seat number not yet taken in a show: 1
// when seat 1 is free, otherwise the first number right after an occupied
// seat whose successor is free.  Taken {1,2,4} gives 3, {2} gives 1, {1,2,3}
// gives 4 and an empty show gives 1.  Join compares the result against
// total_seats.
const lowestFreeSeat = `SELECT CASE
           WHEN NOT EXISTS (SELECT 1 FROM virtual_seats WHERE show_id = ? AND seat_number = 1) THEN 1
           ELSE (SELECT MIN(v.seat_number) + 1
                 FROM virtual_seats v
                 WHERE v.show_id = ?
                   AND NOT EXISTS (SELECT 1 FROM virtual_seats w
                                   WHERE w.show_id = v.show_id AND w.seat_number = v.seat_number + 1))
       END`

// Join seats userID in the show's audience.  The show row is locked for the
// duration of the transaction so concurrent joins serialize and never
// exceed total_seats.  When the user is already seated the existing seat is
// returned together with ErrAlreadySeated.
func (r *SeatRepo) Join(ctx context.Context, showID, userID uint64) (model.VirtualSeat, error) {
	var seat model.VirtualSeat
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			status string
			total  uint32
		)
		err := tx.QueryRowContext(ctx,
			`SELECT status, total_seats FROM shows WHERE id = ? FOR UPDATE`, showID).Scan(&status, &total)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShowNotFound
			}
			return err
		}
		if status == model.ShowEnded {
			return ErrShowEnded
		}
		existing, err := getSeat(ctx, tx, showID, userID)
		switch {
		case err == nil:
			seat = existing
			return ErrAlreadySeated
		case !errors.Is(err, ErrNotSeated):
			return err
		}
		var next uint32
		if err := tx.QueryRowContext(ctx, lowestFreeSeat, showID, showID).Scan(&next); err != nil {
			return err
		}
		if next > total {
			return ErrShowFull
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO virtual_seats (show_id, user_id, seat_number) VALUES (?, ?, ?)`,
			showID, userID, next); err != nil {
			if isDuplicate(err) {
				return ErrAlreadySeated
			}
			return err
		}
		seat, err = getSeat(ctx, tx, showID, userID)
		return err
	})
	return seat, err
}

// Leave removes the user's virtual seat and vacates any speaker seat they
// hold in the same show.  It returns the vacated speaker seat number, or 0.
func (r *SeatRepo) Leave(ctx context.Context, showID, userID uint64) (uint8, error) {
	var speaker uint8
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT seat_number FROM speaker_seats WHERE show_id = ? AND user_id = ? FOR UPDATE`,
			showID, userID).Scan(&speaker)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if speaker > 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE speaker_seats SET user_id = NULL, is_muted = 1, joined_at = NULL WHERE show_id = ? AND seat_number = ?`,
				showID, speaker); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM virtual_seats WHERE show_id = ? AND user_id = ?`, showID, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotSeated
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return speaker, nil
}

// GetForUser returns the user's seat or ErrNotSeated.
func (r *SeatRepo) GetForUser(ctx context.Context, showID, userID uint64) (model.VirtualSeat, error) {
	return getSeat(ctx, r.db, showID, userID)
}

// Count returns the number of occupied virtual seats, i.e. the viewer count.
func (r *SeatRepo) Count(ctx context.Context, showID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM virtual_seats WHERE show_id = ?`, showID).Scan(&n)
	return n, err
}

func getSeat(ctx context.Context, q queryRower, showID, userID uint64) (model.VirtualSeat, error) {
	return scanSeat(q.QueryRowContext(ctx,
		`SELECT id, show_id, user_id, seat_number, joined_at FROM virtual_seats WHERE show_id = ? AND user_id = ?`,
		showID, userID))
}

// requireSeatTx fails with ErrNotSeated unless the user holds a seat.
func requireSeatTx(ctx context.Context, tx *sql.Tx, showID, userID uint64) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM virtual_seats WHERE show_id = ? AND user_id = ? LIMIT 1`, showID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotSeated
	}
	return err
}

func scanSeat(row scanner) (model.VirtualSeat, error) {
	var s model.VirtualSeat
	err := row.Scan(&s.ID, &s.ShowID, &s.UserID, &s.SeatNumber, &s.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VirtualSeat{}, ErrNotSeated
	}
	return s, err
}
