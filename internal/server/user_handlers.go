package server

import (
	"context"
	"strings"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/service"
	"warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Homepage handles GET /. Anonymous visitors get the landing page; logged-in
// users see the newest messages from themselves and the people they follow.
func (s *Server) Homepage(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return s.render(c, fiber.StatusOK, "home-anon", nil)
	}

	ctx := c.UserContext()
	timeline, err := s.messages.Timeline(ctx, userID, timelineLimit)
	if err != nil {
		return err
	}
	likes, err := s.messages.LikedIDs(ctx, userID, timeline)
	if err != nil {
		return err
	}
	profile, err := s.users.GetProfile(ctx, userID, 0)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, "home", fiber.Map{
		"Messages":    timeline,
		"Likes":       likes,
		"Profile":     profile,
		"CurrentUser": profile.User,
	})
}

// ListUsers handles GET /users?q=
func (s *Server) ListUsers(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	users, err := s.users.Search(c.UserContext(), query, userListLimit, 0)
	if err != nil {
		return err
	}

	data := fiber.Map{"Users": users, "Query": query}
	if userID, ok := middleware.CurrentUserID(c); ok {
		following, err := s.users.FollowingSet(c.UserContext(), userID)
		if err != nil {
			return err
		}
		data["Following"] = following
	}
	return s.render(c, fiber.StatusOK, "users/index", data)
}

// ShowUser handles GET /users/:id
func (s *Server) ShowUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "User")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	profile, err := s.users.GetProfile(ctx, id, profileLimit)
	if err != nil {
		return err
	}

	messages := profile.User.Messages
	for i := range messages {
		messages[i].User = profile.User
	}

	data := fiber.Map{"Profile": profile, "Messages": messages}
	if userID, ok := middleware.CurrentUserID(c); ok {
		following, err := s.users.IsFollowing(ctx, userID, id)
		if err != nil {
			return err
		}
		likes, err := s.messages.LikedIDs(ctx, userID, messages)
		if err != nil {
			return err
		}
		data["IsFollowing"] = following
		data["Likes"] = likes
	}
	return s.render(c, fiber.StatusOK, "users/show", data)
}

// ShowFollowing handles GET /users/:id/following
func (s *Server) ShowFollowing(c *fiber.Ctx) error {
	return s.showUserList(c, "users/following", s.users.Following)
}

// ShowFollowers handles GET /users/:id/followers
func (s *Server) ShowFollowers(c *fiber.Ctx) error {
	return s.showUserList(c, "users/followers", s.users.Followers)
}

func (s *Server) showUserList(c *fiber.Ctx, page string, list func(ctx context.Context, id uint) ([]models.User, error)) error {
	id, err := pathID(c, "id", "User")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	profile, err := s.users.GetProfile(ctx, id, 0)
	if err != nil {
		return err
	}
	users, err := list(ctx, id)
	if err != nil {
		return err
	}
	following, err := s.users.FollowingSet(ctx, currentUserID(c))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, page, fiber.Map{
		"Profile":   profile,
		"Users":     users,
		"Following": following,
	})
}

// ShowLikes handles GET /users/:id/likes
func (s *Server) ShowLikes(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "User")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	profile, err := s.users.GetProfile(ctx, id, 0)
	if err != nil {
		return err
	}
	liked, err := s.messages.LikedMessages(ctx, id)
	if err != nil {
		return err
	}
	mine, err := s.messages.LikedIDs(ctx, currentUserID(c), liked)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "users/likes", fiber.Map{
		"Profile":  profile,
		"Messages": liked,
		"Likes":    mine,
	})
}

// Follow handles POST /users/follow/:id
func (s *Server) Follow(c *fiber.Ctx) error {
	followeeID, err := pathID(c, "id", "User")
	if err != nil {
		return err
	}
	userID := currentUserID(c)
	err = s.users.Follow(c.UserContext(), userID, followeeID)
	if models.IsCode(err, models.CodeValidation) {
		return s.redirectWithFlash(c, userPath(userID)+"/following", flashDanger, err.Error())
	}
	if err != nil {
		return err
	}
	s.metrics.FollowEvents.WithLabelValues("follow").Inc()
	return c.Redirect(userPath(userID)+"/following", fiber.StatusFound)
}

// StopFollowing handles POST /users/stop-following/:id
func (s *Server) StopFollowing(c *fiber.Ctx) error {
	followeeID, err := pathID(c, "id", "User")
	if err != nil {
		return err
	}
	userID := currentUserID(c)
	if err := s.users.Unfollow(c.UserContext(), userID, followeeID); err != nil {
		return err
	}
	s.metrics.FollowEvents.WithLabelValues("unfollow").Inc()
	return c.Redirect(userPath(userID)+"/following", fiber.StatusFound)
}

// EditProfileForm handles GET /users/profile
func (s *Server) EditProfileForm(c *fiber.Ctx) error {
	user, err := s.users.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "users/edit", fiber.Map{
		"CurrentUser": user,
		"Form": validation.ProfileForm{
			Username:       user.Username,
			Email:          user.Email,
			ImageURL:       user.ImageURL,
			HeaderImageURL: user.HeaderImageURL,
			Bio:            user.Bio,
			Location:       user.Location,
		},
	})
}

// UpdateProfile handles POST /users/profile. The current password confirms the edit.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var form validation.ProfileForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}
	if errs := validation.Struct(&form); errs != nil {
		return s.render(c, fiber.StatusOK, "users/edit", fiber.Map{"Form": form, "Errors": errs})
	}

	userID := currentUserID(c)
	_, err := s.users.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:         userID,
		Username:       form.Username,
		Email:          form.Email,
		ImageURL:       form.ImageURL,
		HeaderImageURL: form.HeaderImageURL,
		Bio:            form.Bio,
		Location:       form.Location,
		Password:       form.Password,
	})
	if models.IsCode(err, models.CodeValidation) {
		return s.render(c, fiber.StatusOK, "users/edit", fiber.Map{
			"Form":  form,
			"Flash": &middleware.Flash{Category: flashDanger, Message: err.Error()},
		})
	}
	if err != nil {
		return err
	}
	return s.redirectWithFlash(c, userPath(userID), flashSuccess, "Profile updated.")
}

// DeleteUser handles POST /users/delete. It removes the account and everything
// hanging off it, then logs out.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	if err := s.users.DeleteUser(c.UserContext(), currentUserID(c)); err != nil {
		return err
	}
	if err := s.sessions.Logout(c); err != nil {
		return err
	}
	return c.Redirect("/signup", fiber.StatusFound)
}
