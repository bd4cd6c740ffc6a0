package server

import (
	"warbler/internal/models"
	"warbler/internal/service"
	"warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// IssueToken handles POST /api/auth/token
// @Summary Issue an API token
// @Description Exchange username and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.LoginForm true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/token [post]
func (s *Server) IssueToken(c *fiber.Ctx) error {
	var req validation.LoginForm
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if errs := validation.Struct(&req); errs != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(errs.Error()))
	}

	user, err := s.users.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	if user == nil {
		s.metrics.RecordAuth("token", "failure")
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewAuthRequiredError("Invalid credentials."))
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return models.NewInternalError(err)
	}
	s.metrics.RecordAuth("token", "success")
	return c.JSON(fiber.Map{"token": token, "user": user})
}

// APIGetUser handles GET /api/users/:id
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) APIGetUser(c *fiber.Ctx) error {
	id, err := apiID(c, "id")
	if err != nil {
		return err
	}
	profile, err := s.users.GetProfile(c.UserContext(), id, profileLimit)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// APIUserMessages handles GET /api/users/:id/messages
// @Summary List a user's newest messages
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param limit query int false "At most 100"
// @Success 200 {array} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/messages [get]
func (s *Server) APIUserMessages(c *fiber.Ctx) error {
	id, err := apiID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	if _, err := s.users.GetUser(ctx, id); err != nil {
		return err
	}
	msgs, err := s.messages.UserMessages(ctx, id, c.QueryInt("limit", profileLimit))
	if err != nil {
		return err
	}
	return c.JSON(msgs)
}

// APIGetMessage handles GET /api/messages/:id
// @Summary Get a message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} models.Message
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{id} [get]
func (s *Server) APIGetMessage(c *fiber.Ctx) error {
	id, err := apiID(c, "id")
	if err != nil {
		return err
	}
	msg, err := s.messages.GetMessage(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(msg)
}

// APICreateMessage handles POST /api/messages
// @Summary Post a message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validation.MessageForm true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /messages [post]
func (s *Server) APICreateMessage(c *fiber.Ctx) error {
	var req validation.MessageForm
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	req.Normalize()
	if errs := validation.Struct(&req); errs != nil {
		return models.NewValidationError(errs.Error())
	}

	msg, err := s.messages.CreateMessage(c.UserContext(), service.CreateMessageInput{
		UserID: currentUserID(c),
		Text:   req.Text,
	})
	if err != nil {
		return err
	}
	s.metrics.MessagesCreated.Inc()
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// APIDeleteMessage handles DELETE /api/messages/:id
// @Summary Delete one of your messages
// @Tags messages
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{id} [delete]
func (s *Server) APIDeleteMessage(c *fiber.Ctx) error {
	id, err := apiID(c, "id")
	if err != nil {
		return err
	}
	err = s.messages.DeleteMessage(c.UserContext(), service.DeleteMessageInput{
		UserID:    currentUserID(c),
		MessageID: id,
	})
	if err != nil {
		return err
	}
	s.metrics.MessagesDeleted.Inc()
	return c.SendStatus(fiber.StatusNoContent)
}
