package controller

import (
	"ai-flowchat-be/internal/pkg/serverutils"
	"ai-flowchat-be/pkg/gateway"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	gateway gateway.HostGateway
}

func NewHealthController(gw gateway.HostGateway) IHealthController {
	return &healthController{gateway: gw}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/health/v1")
	h.Get("", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	mode := "standalone"
	if c.gateway.IsAvailable() {
		mode = "host"
	}
	return ctx.JSON(serverutils.SuccessResponse("Service healthy", fiber.Map{
		"mode": mode,
	}))
}
