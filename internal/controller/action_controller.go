package controller

import (
	"ai-flowchat-be/internal/dto"
	"ai-flowchat-be/internal/pkg/serverutils"
	"ai-flowchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IActionController interface {
	RegisterRoutes(r fiber.Router, identity fiber.Handler)
	CreateRecord(ctx *fiber.Ctx) error
	OpenPopup(ctx *fiber.Ctx) error
	Balance(ctx *fiber.Ctx) error
}

type actionController struct {
	actionService service.IActionService
}

func NewActionController(actionService service.IActionService) IActionController {
	return &actionController{
		actionService: actionService,
	}
}

func (c *actionController) RegisterRoutes(r fiber.Router, identity fiber.Handler) {
	h := r.Group("/action/v1")
	h.Use(identity)
	h.Post("record", c.CreateRecord)
	h.Post("popup", c.OpenPopup)
	h.Get("balance/:flowKey", c.Balance)
}

func (c *actionController) CreateRecord(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	var req dto.CreateRecordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.actionService.CreateRecord(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create record", res))
}

func (c *actionController) OpenPopup(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	var req dto.OpenPopupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.actionService.OpenPopup(ctx.Context(), userId, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success open popup", nil))
}

func (c *actionController) Balance(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	res, err := c.actionService.GetBalance(ctx.Context(), userId, ctx.Params("flowKey"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get balance", res))
}
