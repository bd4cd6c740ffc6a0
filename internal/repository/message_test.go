package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"warbler/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "messages" WHERE "messages"."id" = $1 ORDER BY "messages"."id" LIMIT $2`)).
		WithArgs(42, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	msg, err := repo.GetByID(context.Background(), 42)
	assert.Nil(t, msg)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_CreateAndGet(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "testuser")
	msg := &models.Message{UserID: u.ID, Text: "Hello"}
	require.NoError(t, repo.Create(ctx, msg))
	assert.NotZero(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero(), "timestamp defaults to insertion time")

	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Text)
	require.NotNil(t, got.User)
	assert.Equal(t, "testuser", got.User.Username)

	n, err := repo.CountByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMessageRepository_Timeline(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	me := createUser(t, db, "me")
	friend := createUser(t, db, "friend")
	stranger := createUser(t, db, "stranger")
	require.NoError(t, db.Create(&models.Follow{UserBeingFollowedID: friend.ID, UserFollowingID: me.ID}).Error)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, m := range []*models.Message{
		{UserID: me.ID, Text: "mine", Timestamp: base},
		{UserID: friend.ID, Text: "friend's", Timestamp: base.Add(time.Minute)},
		{UserID: stranger.ID, Text: "stranger's", Timestamp: base.Add(2 * time.Minute)},
	} {
		require.NoError(t, repo.Create(ctx, m), "message %d", i)
	}

	timeline, err := repo.Timeline(ctx, me.ID, 100)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, "friend's", timeline[0].Text)
	assert.Equal(t, "mine", timeline[1].Text)
	assert.Equal(t, "friend", timeline[0].User.Username)

	limited, err := repo.Timeline(ctx, me.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMessageRepository_DeleteRemovesLikes(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	fan := createUser(t, db, "fan")
	msg := createMessage(t, db, author.ID, "likeable")
	require.NoError(t, db.Create(&models.Like{UserID: fan.ID, MessageID: msg.ID}).Error)

	require.NoError(t, repo.Delete(ctx, msg.ID))

	_, err := repo.GetByID(ctx, msg.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	var likes int64
	db.Model(&models.Like{}).Count(&likes)
	assert.Zero(t, likes)

	err = repo.Delete(ctx, msg.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestMessageRepository_Counts(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "writer")
	other := createUser(t, db, "other")
	createMessage(t, db, u.ID, "one")
	createMessage(t, db, u.ID, "two")
	createMessage(t, db, other.ID, "three")

	mine, err := repo.CountByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine)

	msgs, err := repo.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, u.ID, m.UserID)
		require.NotNil(t, m.User)
		assert.Equal(t, "writer", m.User.Username)
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
