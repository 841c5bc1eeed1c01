package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/indias-got-voice/internal/model"
)

const commentColumns = `c.id, c.show_id, c.user_id, c.comment_text, c.created_at, u.full_name, u.avatar_url`

// CommentRepo stores the live chat of each show.
type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

// List returns comments in chronological order.  With afterID > 0 it
// returns up to limit comments newer than afterID, which is what polling
// clients ask for; otherwise it returns the latest limit comments.
func (r *CommentRepo) List(ctx context.Context, showID, afterID uint64, limit int) ([]model.ShowComment, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if afterID > 0 {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+commentColumns+`
             FROM show_comments c JOIN users u ON u.id = c.user_id
             WHERE c.show_id = ? AND c.id > ?
             ORDER BY c.id ASC LIMIT ?`, showID, afterID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+commentColumns+`
             FROM show_comments c JOIN users u ON u.id = c.user_id
             WHERE c.show_id = ?
             ORDER BY c.id DESC LIMIT ?`, showID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	comments := []model.ShowComment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if afterID == 0 {
		for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
			comments[i], comments[j] = comments[j], comments[i]
		}
	}
	return comments, nil
}

// Create posts a comment.  The author must be seated and the show must not
// have ended.
func (r *CommentRepo) Create(ctx context.Context, c *model.ShowComment) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, err := showStatusTx(ctx, tx, c.ShowID, false)
		if err != nil {
			return err
		}
		if status == model.ShowEnded {
			return ErrShowEnded
		}
		if err := requireSeatTx(ctx, tx, c.ShowID, c.UserID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO show_comments (show_id, user_id, comment_text) VALUES (?, ?, ?)`,
			c.ShowID, c.UserID, c.CommentText)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err := scanComment(tx.QueryRowContext(ctx,
			`SELECT `+commentColumns+` FROM show_comments c JOIN users u ON u.id = c.user_id WHERE c.id = ?`, id))
		if err != nil {
			return err
		}
		*c = created
		return nil
	})
}

// Delete removes a comment by id.
func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM show_comments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func scanComment(row scanner) (model.ShowComment, error) {
	var c model.ShowComment
	err := row.Scan(&c.ID, &c.ShowID, &c.UserID, &c.CommentText, &c.CreatedAt, &c.FullName, &c.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ShowComment{}, ErrCommentNotFound
	}
	return c, err
}
