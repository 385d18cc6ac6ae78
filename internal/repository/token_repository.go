package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avetisk/fullstack-auth/internal/model"
)

// RefreshTokenRepo persists refresh tokens.  The 'token' column carries a
// unique index; 'user_id' a secondary index.
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// Store inserts a refresh token row.
func (r *RefreshTokenRepo) Store(ctx context.Context, userID uint64, value string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES (?,?,?)",
		value, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// FindByToken returns the row for the given opaque value, ErrNotFound when
// absent.
func (r *RefreshTokenRepo) FindByToken(ctx context.Context, value string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,token,user_id,expires_at FROM refresh_tokens WHERE token=? LIMIT 1",
		value).Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("query refresh token: %w", err)
	}
	return t, nil
}

// DeleteByToken removes the row for the given value and reports whether a
// row was actually deleted.  The single DELETE plus affected-rows check is
// the atomic primitive behind rotation: of N concurrent callers presenting
// the same value, exactly one observes true.
func (r *RefreshTokenRepo) DeleteByToken(ctx context.Context, value string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token=?", value)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	return n > 0, nil
}

// DeleteByUserID removes every refresh token owned by the user.  Deleting
// zero rows is not an error; logout is idempotent.
func (r *RefreshTokenRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID)
	if err != nil {
		return fmt.Errorf("delete refresh tokens for user: %w", err)
	}
	return nil
}
