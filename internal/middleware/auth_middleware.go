package middleware

import (
	"strings"

	"volt-inventory/internal/access"
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// RequireAuth validates the bearer token against the user's current state
// and stores the resulting principal in the request context.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Extract token from "Bearer <token>"
		parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return apperror.Auth(access.MsgNotAuthorized)
		}

		p, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			return err
		}

		c.Locals(principalKey, p)
		return c.Next()
	}
}

// Principal returns the caller set by RequireAuth, or nil on public routes.
func Principal(c *fiber.Ctx) *access.Principal {
	p, _ := c.Locals(principalKey).(*access.Principal)
	return p
}

// RequireAction gates a route on the caller's role before the handler loads
// the target. Resource checks happen again in the service once it is known.
func RequireAction(action access.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := Principal(c)
		res := access.Resource{}
		if p != nil {
			res.CompanyID = p.CompanyID
		}
		if err := access.Authorize(p, action, res); err != nil {
			return err
		}
		return c.Next()
	}
}
