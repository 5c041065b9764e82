// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateResetToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "test@example.com", "Passw0rd!")

	token, err := repo.CreateResetToken(ctx, user.ID, "OCD7M2")

	require.NoError(t, err)
	assert.NotZero(t, token.ID)
	assert.Equal(t, user.ID, token.UserID)
	assert.Equal(t, "OCD7M2", token.Token)
	assert.NotZero(t, token.CreatedAt)
}

func TestCreateResetToken_ReplacesPrior(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "test@example.com", "Passw0rd!")

	_, err := repo.CreateResetToken(ctx, user.ID, "FIRST1")
	require.NoError(t, err)
	_, err = repo.CreateResetToken(ctx, user.ID, "SECOND")
	require.NoError(t, err)

	count, err := repo.CountResetTokens(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	live, err := repo.GetResetTokenByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "SECOND", live.Token)
}

func TestCreateResetToken_KeepsOtherUsers(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	alice := testutil.NewTestUser(t, repo, "alice@example.com", "Passw0rd!")
	bob := testutil.NewTestUser(t, repo, "bob@example.com", "Passw0rd!")

	_, err := repo.CreateResetToken(ctx, alice.ID, "ALICE1")
	require.NoError(t, err)
	_, err = repo.CreateResetToken(ctx, bob.ID, "BOBTOK")
	require.NoError(t, err)

	live, err := repo.GetResetTokenByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "ALICE1", live.Token)
}

func TestGetResetTokenByUserID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "test@example.com", "Passw0rd!")

	_, err := repo.GetResetTokenByUserID(ctx, user.ID)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteExpiredResetTokens(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "test@example.com", "Passw0rd!")

	_, err := repo.CreateResetToken(ctx, user.ID, "OLDTOK")
	require.NoError(t, err)

	// Age the token past the cutoff
	_, err = db.ExecContext(ctx, `UPDATE reset_tokens SET created_at = ?`, time.Now().UTC().Add(-10*time.Minute))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteExpiredResetTokens(ctx, time.Now().UTC().Add(-5*time.Minute)))

	count, err := repo.CountResetTokens(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
