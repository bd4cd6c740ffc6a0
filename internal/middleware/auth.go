package middleware

import (
	"context"
	"log/slog"
	"strings"

	"warbler/internal/auth"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired enforces a valid bearer token on the JSON API and stores the
// token's subject in c.Locals("userID"). verify reports whether the subject
// still names an existing user; tokens of deleted users are refused.
func AuthRequired(tokens *auth.TokenIssuer, verify func(ctx context.Context, id uint) (bool, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthRequiredError("Authorization header required"))
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || scheme != "Bearer" || token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthRequiredError("Invalid authorization header format"))
		}

		userID, err := tokens.Parse(token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthRequiredError("Invalid or expired token"))
		}

		exists, err := verify(c.UserContext(), userID)
		if err != nil {
			return err
		}
		if !exists {
			Logger.WarnContext(c.UserContext(), "rejecting token for missing user", slog.Any("user_id", userID))
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthRequiredError("Invalid or expired token"))
		}

		setUser(c, userID)
		return c.Next()
	}
}
