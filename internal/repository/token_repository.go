package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo persists and validates refresh tokens by their SHA-256 hash.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// Rotate revokes oldHash and stores newHash for the same user in one
// transaction, so a refresh token can be exchanged only once.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error) {
	var userID uint64
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var err error
		userID, err = validateRefresh(tx.QueryRowContext(ctx,
			"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1 FOR UPDATE",
			oldHash))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=?", oldHash); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
			userID, newHash, exp)
		return err
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

func validateRefresh(row *sql.Row) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	if err := row.Scan(&userID, &expiresAt, &revokedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTokenInvalid
		}
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}
