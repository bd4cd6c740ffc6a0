package server

import (
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/service"
	"warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// NewMessageForm handles GET /messages/new
func (s *Server) NewMessageForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "messages/new", fiber.Map{"Form": validation.MessageForm{}})
}

// CreateMessage handles POST /messages/new. Invalid input re-renders the form
// with 200; success redirects to the author's page.
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	var form validation.MessageForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}
	form.Normalize()
	if errs := validation.Struct(&form); errs != nil {
		return s.render(c, fiber.StatusOK, "messages/new", fiber.Map{"Form": form, "Errors": errs})
	}

	userID := currentUserID(c)
	_, err := s.messages.CreateMessage(c.UserContext(), service.CreateMessageInput{UserID: userID, Text: form.Text})
	if models.IsCode(err, models.CodeValidation) {
		return s.render(c, fiber.StatusOK, "messages/new", fiber.Map{
			"Form":   form,
			"Errors": validation.Errors{"text": err.Error()},
		})
	}
	if err != nil {
		return err
	}

	s.metrics.MessagesCreated.Inc()
	return c.Redirect(userPath(userID), fiber.StatusFound)
}

// ShowMessage handles GET /messages/:id
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "Message")
	if err != nil {
		return err
	}
	msg, err := s.messages.GetMessage(c.UserContext(), id)
	if err != nil {
		return err
	}

	data := fiber.Map{"Message": msg}
	if userID, ok := middleware.CurrentUserID(c); ok {
		data["IsOwner"] = models.OwnedBy(msg, userID)
		liked, err := s.messages.LikedIDs(c.UserContext(), userID, []models.Message{*msg})
		if err != nil {
			return err
		}
		data["Liked"] = liked[msg.ID]
	}
	return s.render(c, fiber.StatusOK, "messages/show", data)
}

// DeleteMessage handles POST /messages/:id/delete. Only the author may delete.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "Message")
	if err != nil {
		return err
	}

	userID := currentUserID(c)
	err = s.messages.DeleteMessage(c.UserContext(), service.DeleteMessageInput{UserID: userID, MessageID: id})
	if models.IsCode(err, models.CodeForbidden) {
		return s.redirectWithFlash(c, "/", flashDanger, "Access unauthorized.")
	}
	if err != nil {
		return err
	}

	s.metrics.MessagesDeleted.Inc()
	return c.Redirect(userPath(userID), fiber.StatusFound)
}

// ToggleLike handles POST /messages/:id/like and returns to the referring page.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "Message")
	if err != nil {
		return err
	}

	liked, err := s.messages.ToggleLike(c.UserContext(), currentUserID(c), id)
	if models.IsCode(err, models.CodeValidation) {
		if ferr := s.sessions.Flash(c, flashDanger, err.Error()); ferr != nil {
			return ferr
		}
		return c.RedirectBack("/", fiber.StatusFound)
	}
	if err != nil {
		return err
	}

	s.metrics.RecordLike(liked)
	return c.RedirectBack("/", fiber.StatusFound)
}
