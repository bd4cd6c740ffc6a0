package server

import (
	"strconv"

	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Flash categories understood by the layout.
const (
	flashSuccess = "success"
	flashDanger  = "danger"
)

// pathID reads a positive integer route parameter. Non-numeric ids name no
// resource, so they are reported as not found.
func pathID(c *fiber.Ctx, param, resource string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError(resource, raw)
	}
	return uint(id), nil
}

// apiID is pathID for the JSON API, where a malformed id is a bad request.
func apiID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid ID")
	}
	return uint(id), nil
}

// render adds the current user and any pending flash to data and renders page.
func (s *Server) render(c *fiber.Ctx, status int, page string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, set := data["CurrentUser"]; !set {
		if id, ok := middleware.CurrentUserID(c); ok {
			user, err := s.users.GetUser(c.UserContext(), id)
			if err != nil {
				return err
			}
			data["CurrentUser"] = user
		}
	}
	if _, set := data["Flash"]; !set {
		flash, err := s.sessions.PopFlash(c)
		if err != nil {
			return err
		}
		if flash != nil {
			data["Flash"] = flash
		}
	}
	return c.Status(status).Render(page, data)
}

// redirectWithFlash stores a flash for the next page and redirects with 302.
func (s *Server) redirectWithFlash(c *fiber.Ctx, to, category, message string) error {
	if err := s.sessions.Flash(c, category, message); err != nil {
		return err
	}
	return c.Redirect(to, fiber.StatusFound)
}

// currentUserID is only called behind RequireLogin, so the id is always set.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := middleware.CurrentUserID(c)
	return id
}

func userPath(id uint) string {
	return "/users/" + strconv.FormatUint(uint64(id), 10)
}
