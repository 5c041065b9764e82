// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"github.com/google/uuid"
)

// CreateUser inserts a new user. The ID, timestamps, default role and
// unverified flag are set here; the caller provides email and password hash.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        models.DefaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, refresh_token_hash, roles, is_email_verified, created_at, updated_at)
		 VALUES (?, ?, ?, '', ?, 0, ?, ?)`,
		user.ID, email, passwordHash, user.Roles, now, now)
	if err != nil {
		return nil, wrapError(err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// UserExists checks if a user with the given email exists.
func (r *Repository) UserExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE email = ?`, email)
	if err != nil {
		return false, wrapError(err)
	}
	return count > 0, nil
}

// UpdateRefreshTokenHash overwrites the stored refresh-token hash. Passing
// an empty string revokes the active session (logout).
func (r *Repository) UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), id)
	if err != nil {
		return wrapError(err)
	}
	return requireRowChanged(res)
}

// UpdateCredentials stores a new password hash and refresh-token hash in a
// single statement, used by the password-reset flow.
func (r *Repository) UpdateCredentials(ctx context.Context, id uuid.UUID, passwordHash, refreshTokenHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, refresh_token_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, refreshTokenHash, time.Now().UTC(), id)
	if err != nil {
		return wrapError(err)
	}
	return requireRowChanged(res)
}

// SetEmailVerified marks the user's email address as verified.
func (r *Repository) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_email_verified = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return wrapError(err)
	}
	return requireRowChanged(res)
}
