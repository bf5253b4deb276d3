package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

const (
	UsernameKey = "username"
)

func getClientAuth(a Authorizer) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Authorizer:      a.CheckAuth,
		ContextUsername: UsernameKey,
	})
}

func Username(c *fiber.Ctx) string {
	if u, ok := c.Locals(UsernameKey).(string); ok {
		return u
	}

	return ""
}
