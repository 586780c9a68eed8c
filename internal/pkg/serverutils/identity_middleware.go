package serverutils

import (
	"github.com/gofiber/fiber/v2"

	"ai-flowchat-be/pkg/gateway"
)

// IdentityMiddleware resolves the acting user from the host platform and
// stores it in request locals. The standalone gateway hands back a demo
// identity, so the chat API works the same in both modes.
func IdentityMiddleware(gw gateway.HostGateway) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		identity, err := gw.GetIdentity(ctx.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "could not resolve identity from host platform")
		}
		ctx.Locals("user_id", identity.UserId)
		ctx.Locals("identity", identity)
		return ctx.Next()
	}
}
