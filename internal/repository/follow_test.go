package repository

import (
	"context"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_Edges(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	u1 := createUser(t, db, "testuser")
	u2 := createUser(t, db, "testuser2")

	require.NoError(t, repo.Create(ctx, u1.ID, u2.ID))

	following, err := repo.Exists(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.True(t, following)

	reverse, err := repo.Exists(ctx, u2.ID, u1.ID)
	require.NoError(t, err)
	assert.False(t, reverse, "edges are directional")

	followers, err := repo.Followers(ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, u1.ID, followers[0].ID)

	followed, err := repo.Following(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, followed, 1)
	assert.Equal(t, u2.ID, followed[0].ID)

	ids, err := repo.FollowingIDs(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{u2.ID}, ids)

	n, err := repo.CountFollowers(ctx, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.CountFollowing(ctx, u2.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFollowRepository_DuplicateEdge(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	u1 := createUser(t, db, "a")
	u2 := createUser(t, db, "b")

	require.NoError(t, repo.Create(ctx, u1.ID, u2.ID))
	err := repo.Create(ctx, u1.ID, u2.ID)
	assert.True(t, models.IsCode(err, models.CodeValidation), "got %v", err)

	// The reverse edge is a different pair.
	assert.NoError(t, repo.Create(ctx, u2.ID, u1.ID))
}

func TestFollowRepository_Delete(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	u1 := createUser(t, db, "a")
	u2 := createUser(t, db, "b")
	require.NoError(t, repo.Create(ctx, u1.ID, u2.ID))

	require.NoError(t, repo.Delete(ctx, u1.ID, u2.ID))
	exists, err := repo.Exists(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, repo.Delete(ctx, u1.ID, u2.ID), "deleting a missing edge is a no-op")
}
