// Package service holds Warbler's business rules on top of the repositories.
package service

import (
	"context"
	"strings"

	"warbler/internal/auth"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
)

type UserService struct {
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	messageRepo repository.MessageRepository
	likeRepo    repository.LikeRepository
	hasher      auth.PasswordHasher
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

type UpdateProfileInput struct {
	UserID         uint
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
	// Password must match the user's current password.
	Password string
}

func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	messageRepo repository.MessageRepository,
	likeRepo repository.LikeRepository,
	hasher auth.PasswordHasher,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		followRepo:  followRepo,
		messageRepo: messageRepo,
		likeRepo:    likeRepo,
		hasher:      hasher,
	}
}

// Signup hashes the password and stores a new user. Username and email
// uniqueness is left to the database; a violation comes back as a validation error.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (_ *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "UserService", "Signup")
	defer func() { observability.EndSpan(span, err) }()

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	if email == "" {
		return nil, models.NewValidationError("Email is required")
	}
	if in.Password == "" {
		return nil, models.NewValidationError("Password is required")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		imageURL = models.DefaultImageURL
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		Password:       digest,
		ImageURL:       imageURL,
		HeaderImageURL: models.DefaultHeaderImageURL,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user when username and password match, and nil
// otherwise. An unknown username and a wrong password are indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(password, user.Password) {
		return nil, nil
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetProfile loads the user with their newest messages and the profile counters.
func (s *UserService) GetProfile(ctx context.Context, id uint, messageLimit int) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByIDWithMessages(ctx, id, messageLimit)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{User: user}
	if profile.MessageCount, err = s.messageRepo.CountByUser(ctx, id); err != nil {
		return nil, err
	}
	if profile.FollowerCount, err = s.followRepo.CountFollowers(ctx, id); err != nil {
		return nil, err
	}
	if profile.FollowingCount, err = s.followRepo.CountFollowing(ctx, id); err != nil {
		return nil, err
	}
	if profile.LikeCount, err = s.likeRepo.CountByUser(ctx, id); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *UserService) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	return s.userRepo.Search(ctx, query, limit, offset)
}

// IsFollowing reports whether user follows other.
func (s *UserService) IsFollowing(ctx context.Context, user, other uint) (bool, error) {
	return s.followRepo.Exists(ctx, user, other)
}

// IsFollowedBy reports whether other follows user.
func (s *UserService) IsFollowedBy(ctx context.Context, user, other uint) (bool, error) {
	return s.followRepo.Exists(ctx, other, user)
}

// Follow makes followerID follow followeeID.
func (s *UserService) Follow(ctx context.Context, followerID, followeeID uint) error {
	if followerID == followeeID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}
	return s.followRepo.Create(ctx, followerID, followeeID)
}

func (s *UserService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}
	return s.followRepo.Delete(ctx, followerID, followeeID)
}

func (s *UserService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.Followers(ctx, userID)
}

func (s *UserService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.Following(ctx, userID)
}

// FollowingSet returns the ids userID follows, for marking follow buttons.
func (s *UserService) FollowingSet(ctx context.Context, userID uint) (map[uint]bool, error) {
	ids, err := s.followRepo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// UpdateProfile edits the user's own profile after re-checking their password.
// Blank fields keep their current value.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(in.Password, user.Password) {
		return nil, models.NewValidationError("Wrong password, please try again.")
	}

	const maxBioLen = 500

	if v := strings.TrimSpace(in.Username); v != "" {
		user.Username = v
	}
	if v := strings.TrimSpace(in.Email); v != "" {
		user.Email = v
	}
	if v := strings.TrimSpace(in.ImageURL); v != "" {
		user.ImageURL = v
	}
	if v := strings.TrimSpace(in.HeaderImageURL); v != "" {
		user.HeaderImageURL = v
	}
	if len([]rune(in.Bio)) > maxBioLen {
		return nil, models.NewValidationError("Bio too long (max 500 characters)")
	}
	user.Bio = strings.TrimSpace(in.Bio)
	user.Location = strings.TrimSpace(in.Location)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user together with their messages, likes and follow edges.
func (s *UserService) DeleteUser(ctx context.Context, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "UserService", "DeleteUser")
	defer func() { observability.EndSpan(span, err) }()

	return s.userRepo.Delete(ctx, id)
}
