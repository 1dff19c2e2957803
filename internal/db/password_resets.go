package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrResetTokenInvalid is returned when a reset token is unknown, used or expired
var ErrResetTokenInvalid = errors.New("reset token is invalid or expired")

// CreatePasswordResetToken stores the hash of a newly issued reset token
func (db *DB) CreatePasswordResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*PasswordResetToken, error) {
	t := PasswordResetToken{UserID: userID, TokenHash: tokenHash}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO password_reset_tokens (user_id, token_hash, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, expires_at, created_at`,
		userID, tokenHash, expiresAt,
	).Scan(&t.ID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}
	return &t, nil
}

// ResetPassword consumes a reset token and sets the user's password in one
// transaction. Any other outstanding tokens for the user are invalidated.
// Returns ErrResetTokenInvalid when the token cannot be used.
func (db *DB) ResetPassword(ctx context.Context, tokenHash, passwordHash string) (uuid.UUID, error) {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID uuid.UUID
	err = tx.QueryRow(ctx,
		`UPDATE password_reset_tokens SET used_at = NOW()
		 WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
		 RETURNING user_id`,
		tokenHash,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrResetTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET password_hash = $1, password_set = TRUE, updated_at = NOW()
		 WHERE id = $2`,
		passwordHash, userID,
	); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update password: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE password_reset_tokens SET used_at = NOW()
		 WHERE user_id = $1 AND used_at IS NULL`,
		userID,
	); err != nil {
		return uuid.Nil, fmt.Errorf("failed to invalidate reset tokens: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit password reset: %w", err)
	}
	return userID, nil
}

// DeleteExpiredResetTokens removes tokens past their expiry
func (db *DB) DeleteExpiredResetTokens(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
