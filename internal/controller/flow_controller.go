package controller

import (
	"ai-flowchat-be/internal/pkg/serverutils"
	"ai-flowchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFlowController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type flowController struct {
	flowService service.IFlowService
}

func NewFlowController(flowService service.IFlowService) IFlowController {
	return &flowController{
		flowService: flowService,
	}
}

func (c *flowController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/flow/v1")
	h.Get("", c.List)
	h.Get(":key", c.Show)
}

func (c *flowController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list flows", c.flowService.ListFlows()))
}

func (c *flowController) Show(ctx *fiber.Ctx) error {
	res, err := c.flowService.GetFlow(ctx.Params("key"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show flow", res))
}
