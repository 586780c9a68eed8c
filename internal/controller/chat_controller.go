package controller

import (
	"ai-flowchat-be/internal/dto"
	"ai-flowchat-be/internal/pkg/serverutils"
	"ai-flowchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, identity fiber.Handler)
	Send(ctx *fiber.Ctx) error
	Transcript(ctx *fiber.Ctx) error
	TaskStatus(ctx *fiber.Ctx) error
	PauseTask(ctx *fiber.Ctx) error
	ResumeTask(ctx *fiber.Ctx) error
	Notices(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router, identity fiber.Handler) {
	h := r.Group("/chat/v1")
	h.Use(identity)
	h.Post("", c.Send)
	h.Get("notices", c.Notices)
	h.Get("task/:id", c.TaskStatus)
	h.Post("task/:id/pause", c.PauseTask)
	h.Post("task/:id/resume", c.ResumeTask)
	h.Get(":id/transcript", c.Transcript)
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) Transcript(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	conversationId := ctx.Params("id")
	flowKey := ctx.Query("flow_key")

	res, err := c.chatService.GetTranscript(ctx.Context(), userId, conversationId, flowKey)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get transcript", res))
}

func (c *chatController) TaskStatus(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	res, err := c.chatService.GetTask(ctx.Context(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get task", res))
}

func (c *chatController) PauseTask(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	res, err := c.chatService.PauseTask(ctx.Context(), userId, ctx.Params("id"), ctx.Query("conversation_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success pause task", res))
}

func (c *chatController) ResumeTask(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	res, err := c.chatService.ResumeTask(ctx.Context(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success resume task", res))
}

func (c *chatController) Notices(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	limit := ctx.QueryInt("limit", 20)

	res, err := c.chatService.GetNotices(ctx.Context(), userId, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get notices", res))
}
