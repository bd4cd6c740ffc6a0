package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// messageRepoStub is a stub for repository.MessageRepository.
type messageRepoStub struct {
	createFn      func(context.Context, *models.Message) error
	getByIDFn     func(context.Context, uint) (*models.Message, error)
	listByUserFn  func(context.Context, uint, int) ([]models.Message, error)
	timelineFn    func(context.Context, uint, int) ([]models.Message, error)
	deleteFn      func(context.Context, uint) error
	countFn       func(context.Context) (int64, error)
	countByUserFn func(context.Context, uint) (int64, error)
}

func (s *messageRepoStub) Create(ctx context.Context, m *models.Message) error {
	return s.createFn(ctx, m)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.listByUserFn(ctx, userID, limit)
}
func (s *messageRepoStub) Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.timelineFn(ctx, userID, limit)
}
func (s *messageRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *messageRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *messageRepoStub) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return s.countByUserFn(ctx, userID)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createFn:      func(_ context.Context, _ *models.Message) error { return nil },
		getByIDFn:     func(_ context.Context, _ uint) (*models.Message, error) { return &models.Message{}, nil },
		listByUserFn:  func(_ context.Context, _ uint, _ int) ([]models.Message, error) { return nil, nil },
		timelineFn:    func(_ context.Context, _ uint, _ int) ([]models.Message, error) { return nil, nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
		countFn:       func(_ context.Context) (int64, error) { return 0, nil },
		countByUserFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	createFn          func(context.Context, uint, uint) error
	deleteFn          func(context.Context, uint, uint) error
	existsFn          func(context.Context, uint, uint) (bool, error)
	likedMessageIDsFn func(context.Context, uint, []uint) ([]uint, error)
}

func (s *likeRepoStub) Create(ctx context.Context, userID, messageID uint) error {
	return s.createFn(ctx, userID, messageID)
}
func (s *likeRepoStub) Delete(ctx context.Context, userID, messageID uint) error {
	return s.deleteFn(ctx, userID, messageID)
}
func (s *likeRepoStub) Exists(ctx context.Context, userID, messageID uint) (bool, error) {
	return s.existsFn(ctx, userID, messageID)
}
func (s *likeRepoStub) LikedMessageIDs(ctx context.Context, userID uint, ids []uint) ([]uint, error) {
	return s.likedMessageIDsFn(ctx, userID, ids)
}
func (s *likeRepoStub) LikedMessages(context.Context, uint) ([]models.Message, error) {
	return nil, nil
}
func (s *likeRepoStub) CountByUser(context.Context, uint) (int64, error) {
	return 0, nil
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		createFn:          func(_ context.Context, _, _ uint) error { return nil },
		deleteFn:          func(_ context.Context, _, _ uint) error { return nil },
		existsFn:          func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likedMessageIDsFn: func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return nil, nil },
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateMessage_Validation(t *testing.T) {
	svc := NewMessageService(noopMessageRepo(), noopLikeRepo())
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateMessageInput
		code string
	}{
		{"anonymous", CreateMessageInput{Text: "hello"}, models.CodeAuthRequired},
		{"empty text", CreateMessageInput{UserID: 1, Text: ""}, models.CodeValidation},
		{"whitespace text", CreateMessageInput{UserID: 1, Text: "   \n\t"}, models.CodeValidation},
		{"141 characters", CreateMessageInput{UserID: 1, Text: strings.Repeat("a", 141)}, models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMessage(ctx, tt.in)
			assertCode(t, err, tt.code)
		})
	}
}

func TestCreateMessage_Success(t *testing.T) {
	repo := noopMessageRepo()
	var stored *models.Message
	repo.createFn = func(_ context.Context, m *models.Message) error {
		m.ID = 10
		stored = m
		return nil
	}
	svc := NewMessageService(repo, noopLikeRepo())

	// 140 multi-byte characters are still 140 characters.
	text := strings.Repeat("é", models.MaxMessageLength)
	msg, err := svc.CreateMessage(context.Background(), CreateMessageInput{UserID: 3, Text: "  " + text + "  "})
	require.NoError(t, err)
	assert.Equal(t, uint(10), msg.ID)
	assert.Equal(t, text, stored.Text)
	assert.Equal(t, uint(3), stored.UserID)
}

func TestUserMessages(t *testing.T) {
	repo := noopMessageRepo()
	repo.listByUserFn = func(_ context.Context, userID uint, limit int) ([]models.Message, error) {
		assert.Equal(t, uint(4), userID)
		assert.Equal(t, 25, limit)
		return []models.Message{{ID: 1, UserID: 4}}, nil
	}
	svc := NewMessageService(repo, noopLikeRepo())

	msgs, err := svc.UserMessages(context.Background(), 4, 25)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, uint(1), msgs[0].ID)
}

func TestDeleteMessage_Ownership(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes", func(t *testing.T) {
		repo := noopMessageRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Message, error) {
			return &models.Message{ID: id, UserID: 5}, nil
		}
		deleted := uint(0)
		repo.deleteFn = func(_ context.Context, id uint) error {
			deleted = id
			return nil
		}
		svc := NewMessageService(repo, noopLikeRepo())

		require.NoError(t, svc.DeleteMessage(ctx, DeleteMessageInput{UserID: 5, MessageID: 9}))
		assert.Equal(t, uint(9), deleted)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		repo := noopMessageRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Message, error) {
			return &models.Message{ID: id, UserID: 5}, nil
		}
		repo.deleteFn = func(context.Context, uint) error {
			t.Fatal("delete must not be called")
			return nil
		}
		svc := NewMessageService(repo, noopLikeRepo())

		assertCode(t, svc.DeleteMessage(ctx, DeleteMessageInput{UserID: 6, MessageID: 9}), models.CodeForbidden)
	})

	t.Run("anonymous", func(t *testing.T) {
		svc := NewMessageService(noopMessageRepo(), noopLikeRepo())
		assertCode(t, svc.DeleteMessage(ctx, DeleteMessageInput{MessageID: 9}), models.CodeAuthRequired)
	})

	t.Run("missing message", func(t *testing.T) {
		repo := noopMessageRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Message, error) {
			return nil, models.NewNotFoundError("Message", id)
		}
		svc := NewMessageService(repo, noopLikeRepo())
		assertCode(t, svc.DeleteMessage(ctx, DeleteMessageInput{UserID: 1, MessageID: 9}), models.CodeNotFound)
	})
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	msgRepo := noopMessageRepo()
	msgRepo.getByIDFn = func(_ context.Context, id uint) (*models.Message, error) {
		return &models.Message{ID: id, UserID: 1}, nil
	}

	t.Run("likes when not yet liked", func(t *testing.T) {
		likes := noopLikeRepo()
		created := false
		likes.createFn = func(context.Context, uint, uint) error { created = true; return nil }
		svc := NewMessageService(msgRepo, likes)

		liked, err := svc.ToggleLike(ctx, 2, 7)
		require.NoError(t, err)
		assert.True(t, liked)
		assert.True(t, created)
	})

	t.Run("unlikes when already liked", func(t *testing.T) {
		likes := noopLikeRepo()
		likes.existsFn = func(context.Context, uint, uint) (bool, error) { return true, nil }
		removed := false
		likes.deleteFn = func(context.Context, uint, uint) error { removed = true; return nil }
		svc := NewMessageService(msgRepo, likes)

		liked, err := svc.ToggleLike(ctx, 2, 7)
		require.NoError(t, err)
		assert.False(t, liked)
		assert.True(t, removed)
	})

	t.Run("own message", func(t *testing.T) {
		svc := NewMessageService(msgRepo, noopLikeRepo())
		_, err := svc.ToggleLike(ctx, 1, 7)
		assertCode(t, err, models.CodeValidation)
	})
}

func TestLikedIDs(t *testing.T) {
	likes := noopLikeRepo()
	likes.likedMessageIDsFn = func(_ context.Context, _ uint, ids []uint) ([]uint, error) {
		assert.Equal(t, []uint{1, 2, 3}, ids)
		return []uint{2}, nil
	}
	svc := NewMessageService(noopMessageRepo(), likes)

	set, err := svc.LikedIDs(context.Background(), 9, []models.Message{{ID: 1}, {ID: 2}, {ID: 3}})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{2: true}, set)

	empty, err := svc.LikedIDs(context.Background(), 0, []models.Message{{ID: 1}})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
