package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akulikov/jirawatch/internal/domain/port/driven"
)

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	err := repo.Set(ctx, "alice@example.com", "alice", "ciphertext-blob")
	require.NoError(t, err)

	cred, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "alice@example.com", cred.Identity)
	assert.Equal(t, "alice", cred.JiraUsername)
	assert.Equal(t, "ciphertext-blob", cred.Ciphertext)
	assert.Equal(t, 0, cred.FailureCount)
	assert.False(t, cred.Locked)
	assert.Nil(t, cred.LockedAt)
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	cred, err := repo.Get(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialRepo_AuthFailureLocksAtLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "alice@example.com", "alice", "ct"))

	for i := 1; i < 5; i++ {
		count, locked, err := repo.RecordAuthFailure(ctx, "alice@example.com", "401 unauthorized", 5)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.False(t, locked, "must not lock before the limit")
	}

	count, locked, err := repo.RecordAuthFailure(ctx, "alice@example.com", "401 unauthorized", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.True(t, locked)

	cred, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.True(t, cred.Locked)
	assert.NotNil(t, cred.LockedAt)
	assert.Equal(t, "401 unauthorized", cred.LastError)
}

func TestCredentialRepo_AuthFailureUnknownIdentity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	_, _, err := repo.RecordAuthFailure(context.Background(), "nobody@example.com", "boom", 5)
	assert.ErrorIs(t, err, driven.ErrNoCredentials)
}

func TestCredentialRepo_AuthSuccessResetsCounter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "alice@example.com", "alice", "ct"))
	_, _, err := repo.RecordAuthFailure(ctx, "alice@example.com", "boom", 5)
	require.NoError(t, err)

	require.NoError(t, repo.RecordAuthSuccess(ctx, "alice@example.com"))

	cred, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, 0, cred.FailureCount)
	assert.False(t, cred.Locked)
	assert.Empty(t, cred.LastError)
}

func TestCredentialRepo_ReplacementUnlocks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "alice@example.com", "alice", "old-ct"))
	for i := 0; i < 5; i++ {
		_, _, err := repo.RecordAuthFailure(ctx, "alice@example.com", "boom", 5)
		require.NoError(t, err)
	}

	cred, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, cred.Locked)

	// Setting a new secret is the only unlock path.
	require.NoError(t, repo.Set(ctx, "alice@example.com", "alice", "new-ct"))

	cred, err = repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.False(t, cred.Locked)
	assert.Equal(t, 0, cred.FailureCount)
	assert.Nil(t, cred.LockedAt)
	assert.Equal(t, "new-ct", cred.Ciphertext)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "alice@example.com", "alice", "ct"))
	require.NoError(t, repo.Delete(ctx, "alice@example.com"))

	cred, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, cred)
}
