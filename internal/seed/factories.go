// Package seed provides helpers to create demo data for the Warbler
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "password"

// Options configures a seed run.
type Options struct {
	NumUsers        int
	MessagesPerUser int
	FollowsPerUser  int
	LikesPerUser    int
	// MaxDays spreads message timestamps over the last MaxDays days.
	MaxDays     int
	ShouldClean bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// Seed makes generated content reproducible when non-zero.
	Seed int64
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	fake *gofakeit.Faker

	passwordHash string
}

// NewFactory creates a Factory bound to db. The shared password is hashed once.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{
		db:           db,
		opts:         opts,
		rng:          rand.New(rand.NewSource(seed)),
		fake:         gofakeit.New(seed),
		passwordHash: string(hash),
	}, nil
}

// CreateUser persists a user with fake profile data. Overrides run before insert.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := f.username()
	user := &models.User{
		Username:       username,
		Email:          fmt.Sprintf("%s@%s", username, f.fake.DomainName()),
		ImageURL:       fmt.Sprintf("https://picsum.photos/seed/%s/200/200", username),
		HeaderImageURL: models.DefaultHeaderImageURL,
		Bio:            truncate(f.fake.Sentence(12), 500),
		Location:       fmt.Sprintf("%s, %s", f.fake.City(), f.fake.StateAbr()),
		Password:       f.passwordHash,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateMessage persists a message for user with text of at most 140 characters.
func (f *Factory) CreateMessage(user *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	msg := &models.Message{
		Text:      truncate(f.fake.HipsterSentence(f.rng.Intn(12)+4), models.MaxMessageLength),
		UserID:    user.ID,
		Timestamp: f.timestamp(),
	}
	for _, override := range overrides {
		override(msg)
	}
	if err := f.db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("create message for user %d: %w", user.ID, err)
	}
	return msg, nil
}

// Follow records that follower follows followed.
func (f *Factory) Follow(follower, followed *models.User) error {
	edge := &models.Follow{UserFollowingID: follower.ID, UserBeingFollowedID: followed.ID}
	if err := f.db.Create(edge).Error; err != nil {
		return fmt.Errorf("follow %d -> %d: %w", follower.ID, followed.ID, err)
	}
	return nil
}

// Like records that user liked msg.
func (f *Factory) Like(user *models.User, msg *models.Message) error {
	like := &models.Like{UserID: user.ID, MessageID: msg.ID}
	if err := f.db.Create(like).Error; err != nil {
		return fmt.Errorf("like %d by %d: %w", msg.ID, user.ID, err)
	}
	return nil
}

// username yields a valid, probably unique handle.
func (f *Factory) username() string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, f.fake.Username())
	if len(base) < 3 {
		base = "warbler"
	}
	name := fmt.Sprintf("%s%d", truncate(base, 24), f.rng.Intn(10000))
	return strings.Trim(name, "_")
}

func (f *Factory) timestamp() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.rng.Int63n(int64(maxDays) * int64(24*time.Hour)))
	return time.Now().UTC().Add(-back)
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
