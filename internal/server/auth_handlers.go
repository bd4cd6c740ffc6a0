package server

import (
	"fmt"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/service"
	"warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SignupForm handles GET /signup
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "users/signup", fiber.Map{"Form": validation.SignupForm{}})
}

// Signup handles POST /signup. A successful signup logs the user in.
func (s *Server) Signup(c *fiber.Ctx) error {
	var form validation.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}
	if errs := validation.Struct(&form); errs != nil {
		return s.render(c, fiber.StatusOK, "users/signup", fiber.Map{"Form": form, "Errors": errs})
	}

	user, err := s.users.Signup(c.UserContext(), service.SignupInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		ImageURL: form.ImageURL,
	})
	if models.IsCode(err, models.CodeValidation) {
		s.metrics.RecordAuth("signup", "rejected")
		return s.render(c, fiber.StatusOK, "users/signup", fiber.Map{
			"Form":  form,
			"Flash": &middleware.Flash{Category: flashDanger, Message: "Username already taken"},
		})
	}
	if err != nil {
		return err
	}

	if err := s.sessions.Login(c, user.ID); err != nil {
		return err
	}
	s.metrics.RecordAuth("signup", "success")
	return c.Redirect("/", fiber.StatusFound)
}

// LoginForm handles GET /login
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "users/login", fiber.Map{"Form": validation.LoginForm{}})
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}
	if errs := validation.Struct(&form); errs != nil {
		return s.render(c, fiber.StatusOK, "users/login", fiber.Map{"Form": form, "Errors": errs})
	}

	user, err := s.users.Authenticate(c.UserContext(), form.Username, form.Password)
	if err != nil {
		return err
	}
	if user == nil {
		s.metrics.RecordAuth("login", "failure")
		return s.render(c, fiber.StatusOK, "users/login", fiber.Map{
			"Form":  validation.LoginForm{Username: form.Username},
			"Flash": &middleware.Flash{Category: flashDanger, Message: "Invalid credentials."},
		})
	}

	if err := s.sessions.Login(c, user.ID); err != nil {
		return err
	}
	s.metrics.RecordAuth("login", "success")
	return s.redirectWithFlash(c, "/", flashSuccess, fmt.Sprintf("Hello, %s!", user.Username))
}

// Logout handles GET /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c); err != nil {
		return err
	}
	s.metrics.RecordAuth("logout", "success")
	return s.redirectWithFlash(c, "/login", flashSuccess, "You have successfully logged out.")
}
