package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
)

type MessageService struct {
	messageRepo repository.MessageRepository
	likeRepo    repository.LikeRepository
}

type CreateMessageInput struct {
	UserID uint
	Text   string
}

type DeleteMessageInput struct {
	UserID    uint
	MessageID uint
}

func NewMessageService(messageRepo repository.MessageRepository, likeRepo repository.LikeRepository) *MessageService {
	return &MessageService{messageRepo: messageRepo, likeRepo: likeRepo}
}

// ValidateMessageText checks the message body rules shared by the form and the API.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return models.NewValidationError("Message text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return models.NewValidationError("Message text must be at most 140 characters")
	}
	return nil
}

func (s *MessageService) CreateMessage(ctx context.Context, in CreateMessageInput) (_ *models.Message, err error) {
	ctx, span := observability.StartSpan(ctx, "MessageService", "CreateMessage")
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == 0 {
		return nil, models.NewAuthRequiredError("Access unauthorized.")
	}
	text := strings.TrimSpace(in.Text)
	if err := ValidateMessageText(text); err != nil {
		return nil, err
	}

	message := &models.Message{UserID: in.UserID, Text: text}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *MessageService) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	return s.messageRepo.GetByID(ctx, id)
}

// DeleteMessage removes a message. Only its author may delete it.
func (s *MessageService) DeleteMessage(ctx context.Context, in DeleteMessageInput) (err error) {
	ctx, span := observability.StartSpan(ctx, "MessageService", "DeleteMessage")
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == 0 {
		return models.NewAuthRequiredError("Access unauthorized.")
	}
	message, err := s.messageRepo.GetByID(ctx, in.MessageID)
	if err != nil {
		return err
	}
	if !models.OwnedBy(message, in.UserID) {
		return models.NewForbiddenError("Access unauthorized.")
	}
	return s.messageRepo.Delete(ctx, in.MessageID)
}

// Timeline returns the newest messages from userID and the users they follow.
func (s *MessageService) Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.messageRepo.Timeline(ctx, userID, limit)
}

// UserMessages returns userID's newest messages.
func (s *MessageService) UserMessages(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.messageRepo.ListByUser(ctx, userID, limit)
}

// ToggleLike likes the message, or removes the like if it already exists.
// It reports whether the message is liked afterwards. Users cannot like their own messages.
func (s *MessageService) ToggleLike(ctx context.Context, userID, messageID uint) (_ bool, err error) {
	ctx, span := observability.StartSpan(ctx, "MessageService", "ToggleLike")
	defer func() { observability.EndSpan(span, err) }()

	if userID == 0 {
		return false, models.NewAuthRequiredError("Access unauthorized.")
	}
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return false, err
	}
	if message.UserID == userID {
		return false, models.NewValidationError("You cannot like your own message")
	}

	liked, err := s.likeRepo.Exists(ctx, userID, messageID)
	if err != nil {
		return false, err
	}
	if liked {
		return false, s.likeRepo.Delete(ctx, userID, messageID)
	}
	return true, s.likeRepo.Create(ctx, userID, messageID)
}

func (s *MessageService) LikedMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.likeRepo.LikedMessages(ctx, userID)
}

// LikedIDs returns which of messages userID has liked, as a set.
func (s *MessageService) LikedIDs(ctx context.Context, userID uint, messages []models.Message) (map[uint]bool, error) {
	set := map[uint]bool{}
	if userID == 0 || len(messages) == 0 {
		return set, nil
	}
	ids := make([]uint, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	liked, err := s.likeRepo.LikedMessageIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range liked {
		set[id] = true
	}
	return set, nil
}
