package middleware

import (
	"marketdesk/internal/application/session"
	"marketdesk/internal/domain"
	"marketdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth resolves the session's auth state and lets only signed-in
// users through. Rejections carry the path the shell should redirect to.
func RequireAuth() fiber.Handler {
	return RequireRole("")
}

// RequireRole is RequireAuth plus a role check. Admins pass every role check.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := GetWorkspace(c)
		if ws == nil {
			return response.Error(c, "Unauthorized", fiber.StatusUnauthorized, fiber.Map{"redirect": session.HomePath})
		}
		st := ws.Session.Init(c.UserContext())
		d := session.Guard(st, role)
		switch d.Outcome {
		case session.Allow:
		case session.Wait:
			return response.Error(c, "Session is still loading", fiber.StatusServiceUnavailable, nil)
		default:
			if _, signedIn := st.(session.Authenticated); signedIn {
				return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, fiber.Map{"redirect": d.To})
			}
			return response.Error(c, "Unauthorized", fiber.StatusUnauthorized, fiber.Map{"redirect": d.To})
		}
		u, _ := ws.Session.User()
		c.Locals(userLocal, u)
		return c.Next()
	}
}

// GetUser returns the signed-in user set by RequireAuth.
func GetUser(c *fiber.Ctx) (domain.User, bool) {
	u, ok := c.Locals(userLocal).(domain.User)
	return u, ok
}
