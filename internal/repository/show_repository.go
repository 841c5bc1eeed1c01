package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/indias-got-voice/internal/model"
)

const showColumns = `id, title, description, banner_url, status, scheduled_at, started_at, ended_at, total_seats, created_by, created_at, updated_at`

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// Create inserts a show and provisions its model.SpeakerSeatCount empty
// speaker seats in the same transaction.  On success the generated ID
// and DB defaults are populated on s.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	if s.TotalSeats == 0 {
		s.TotalSeats = model.DefaultTotalSeats
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO shows (title, description, banner_url, scheduled_at, total_seats, created_by) VALUES (?, ?, ?, ?, ?, ?)`,
			s.Title, s.Description, s.BannerURL, s.ScheduledAt.UTC(), s.TotalSeats, s.CreatedBy)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := createSpeakerSeatsTx(ctx, tx, uint64(id), model.SpeakerSeatCount); err != nil {
			return err
		}
		created, err := scanShow(tx.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id))
		if err != nil {
			return err
		}
		*s = created
		return nil
	})
}

// createSpeakerSeatsTx inserts all speaker seat rows of a show in a single
// statement.
func createSpeakerSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64, n int) error {
	if n <= 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO speaker_seats (show_id, seat_number) VALUES `)
	args := make([]any, 0, n*2)
	for i := 1; i <= n; i++ {
		if i > 1 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?)")
		args = append(args, showID, i)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (model.Show, error) {
	return scanShow(r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id))
}

// List returns shows ordered by scheduled time, optionally filtered by
// status.  This backs the public show list.
func (r *ShowRepo) List(ctx context.Context, status string) ([]model.Show, error) {
	q := `SELECT ` + showColumns + ` FROM shows`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY scheduled_at ASC, id ASC`
	return r.query(ctx, q, args...)
}

// ListAll returns every show, newest first, for the admin dashboard.
func (r *ShowRepo) ListAll(ctx context.Context) ([]model.Show, error) {
	return r.query(ctx, `SELECT `+showColumns+` FROM shows ORDER BY created_at DESC, id DESC`)
}

func (r *ShowRepo) query(ctx context.Context, q string, args ...any) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Show{}
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus moves a show along its lifecycle.  Going live stamps
// started_at and ending stamps ended_at, each only the first time.  It
// returns ErrNoChange when the show already has the status and
// ErrInvalidTransition for backward moves.
func (r *ShowRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Show, error) {
	var updated model.Show
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := showStatusTx(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if current == status {
			return ErrNoChange
		}
		if !model.CanTransition(current, status) {
			return ErrInvalidTransition
		}
		const q = `UPDATE shows
               SET status = ?,
                   started_at = IF(? = 'live', COALESCE(started_at, UTC_TIMESTAMP()), started_at),
                   ended_at = IF(? = 'ended', COALESCE(ended_at, UTC_TIMESTAMP()), ended_at)
               WHERE id = ?`
		if _, err := tx.ExecContext(ctx, q, status, status, status, id); err != nil {
			return err
		}
		updated, err = scanShow(tx.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id))
		return err
	})
	return updated, err
}

// Delete removes a show.  Participants, seats, votes and comments cascade.
func (r *ShowRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShowNotFound
	}
	return nil
}

// showStatusTx reads a show's status inside tx, optionally locking the row.
func showStatusTx(ctx context.Context, tx *sql.Tx, id uint64, lock bool) (string, error) {
	q := `SELECT status FROM shows WHERE id = ?`
	if lock {
		q += ` FOR UPDATE`
	}
	var status string
	if err := tx.QueryRowContext(ctx, q, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrShowNotFound
		}
		return "", err
	}
	return status, nil
}

func scanShow(row scanner) (model.Show, error) {
	var s model.Show
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.BannerURL, &s.Status, &s.ScheduledAt,
		&s.StartedAt, &s.EndedAt, &s.TotalSeats, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Show{}, ErrShowNotFound
	}
	return s, err
}
