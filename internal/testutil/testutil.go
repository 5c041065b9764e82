// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"codeberg.org/oliverandrich/go-auth-api/internal/database"
	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/auth"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates a user with a bcrypt-hashed password.
func NewTestUser(t *testing.T, repo *repository.Repository, email, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user, err := repo.CreateUser(context.Background(), email, hash)
	require.NoError(t, err)
	return user
}

// TestJWTConfig returns fixed test secrets with the standard 15 minute /
// 24 hour lifetimes.
func TestJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
}

// NewTestSigner returns a signer built from TestJWTConfig.
func NewTestSigner(t *testing.T) *auth.Signer {
	t.Helper()
	return auth.NewSigner(TestJWTConfig())
}

// Mail is a recorded outgoing mail.
type Mail struct {
	To      string
	Payload string // verification hash or reset token
}

// FakeMailer records mails instead of sending them.
type FakeMailer struct {
	mu             sync.Mutex
	Activations    []Mail
	Resets         []Mail
	FailActivation bool
	FailReset      bool
}

func (m *FakeMailer) SendActivation(_ context.Context, toEmail, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailActivation {
		return errors.New("smtp unavailable")
	}
	m.Activations = append(m.Activations, Mail{To: toEmail, Payload: hash})
	return nil
}

func (m *FakeMailer) SendPasswordReset(_ context.Context, toEmail, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReset {
		return errors.New("smtp unavailable")
	}
	m.Resets = append(m.Resets, Mail{To: toEmail, Payload: token})
	return nil
}

// LastActivation returns the most recent activation mail.
func (m *FakeMailer) LastActivation(t *testing.T) Mail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.Activations)
	return m.Activations[len(m.Activations)-1]
}

// LastReset returns the most recent password-reset mail.
func (m *FakeMailer) LastReset(t *testing.T) Mail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.Resets)
	return m.Resets[len(m.Resets)-1]
}
