package seed

import (
	"fmt"
	"log"

	"warbler/internal/models"

	"gorm.io/gorm"
)

// DefaultOptions is the demo graph used by cmd/seed and InitRuntime.
var DefaultOptions = Options{
	NumUsers:        20,
	MessagesPerUser: 5,
	FollowsPerUser:  4,
	LikesPerUser:    6,
	MaxDays:         30,
}

// Result reports what a seed run created.
type Result struct {
	Users    []*models.User
	Messages []*models.Message
	Follows  int
	Likes    int
}

// Run seeds a small social graph: users, their messages, follow edges and likes.
// Users never follow themselves or like their own messages.
func Run(db *gorm.DB, opts Options) (*Result, error) {
	log.Printf("Seeding %d users with %d messages each...", opts.NumUsers, opts.MessagesPerUser)

	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return nil, err
		}
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			log.Printf("Skipping user: %v", err)
			continue
		}
		res.Users = append(res.Users, u)
	}
	log.Printf("%d users created", len(res.Users))

	for _, u := range res.Users {
		for i := 0; i < opts.MessagesPerUser; i++ {
			m, err := f.CreateMessage(u)
			if err != nil {
				return nil, err
			}
			res.Messages = append(res.Messages, m)
		}
	}
	log.Printf("%d messages created", len(res.Messages))

	n := len(res.Users)
	for i, u := range res.Users {
		follows := min(opts.FollowsPerUser, n-1)
		for _, j := range f.rng.Perm(n) {
			if follows <= 0 {
				break
			}
			if j == i {
				continue
			}
			if err := f.Follow(u, res.Users[j]); err != nil {
				return nil, err
			}
			res.Follows++
			follows--
		}
	}

	for _, u := range res.Users {
		likes := opts.LikesPerUser
		for _, k := range f.rng.Perm(len(res.Messages)) {
			if likes <= 0 {
				break
			}
			m := res.Messages[k]
			if m.UserID == u.ID {
				continue
			}
			if err := f.Like(u, m); err != nil {
				return nil, err
			}
			res.Likes++
			likes--
		}
	}
	log.Printf("%d follows and %d likes created", res.Follows, res.Likes)
	log.Printf("All seeded users share the password: %s", DefaultPassword)

	return res, nil
}

// Clean removes every row from the Warbler tables, dependents first.
func Clean(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Like{}, &models.Follow{}, &models.Message{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clean %T: %w", model, err)
			}
		}
		return nil
	})
}
