// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"github.com/google/uuid"
)

// CreateResetToken stores a password-reset token for a user. All prior
// tokens for that user are deleted first, so at most one live token exists
// per user at any time.
func (r *Repository) CreateResetToken(ctx context.Context, userID uuid.UUID, token string) (*models.ResetToken, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapError(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reset_tokens WHERE user_id = ?`, userID); err != nil {
		return nil, wrapError(err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO reset_tokens (user_id, token, created_at) VALUES (?, ?, ?)`,
		userID, token, now)
	if err != nil {
		return nil, wrapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapError(err)
	}

	return &models.ResetToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
	}, nil
}

// GetResetTokenByUserID retrieves the live reset token for a user.
func (r *Repository) GetResetTokenByUserID(ctx context.Context, userID uuid.UUID) (*models.ResetToken, error) {
	var token models.ResetToken
	err := r.db.GetContext(ctx, &token,
		`SELECT * FROM reset_tokens WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`, userID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// CountResetTokens returns the number of stored reset tokens for a user.
func (r *Repository) CountResetTokens(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM reset_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, wrapError(err)
	}
	return count, nil
}

// DeleteExpiredResetTokens removes tokens created before the cutoff. Called
// opportunistically; correctness does not depend on it because expiry is
// checked against created_at on every reset attempt.
func (r *Repository) DeleteExpiredResetTokens(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE created_at < ?`, cutoff)
	return wrapError(err)
}
