package serverutils

import (
	"errors"

	"ai-flowchat-be/pkg/flow"
	"ai-flowchat-be/pkg/gateway"
	"ai-flowchat-be/pkg/llm"
	"ai-flowchat-be/pkg/rag"
	"ai-flowchat-be/pkg/rag/search"
	"ai-flowchat-be/pkg/rag/task"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps pipeline errors onto HTTP statuses and a
// stable error code, so controllers just return errors upward.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, code := classify(err)
		return ctx.Status(status).JSON(ErrorResponse{
			Status:  "error",
			Message: err.Error(),
			Code:    code,
		})
	}
}

func classify(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, "REQUEST_ERROR"
	}

	var providerErr *llm.ProviderError
	var validationErr *llm.ValidationError
	var retrievalErr *search.RetrievalError
	var sdkErr *gateway.SdkError

	switch {
	case errors.Is(err, rag.ErrInvalidInput):
		return fiber.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, rag.ErrNotInitialized):
		return fiber.StatusConflict, "NOT_INITIALIZED"
	case errors.Is(err, flow.ErrUnknownFlow):
		return fiber.StatusNotFound, "UNKNOWN_FLOW"
	case errors.Is(err, gateway.ErrActionNotPermitted):
		return fiber.StatusForbidden, "ACTION_NOT_PERMITTED"
	case errors.Is(err, gateway.ErrSdkUnavailable):
		return fiber.StatusServiceUnavailable, "SDK_UNAVAILABLE"
	case errors.Is(err, task.ErrIllegalTransition):
		return fiber.StatusConflict, "ILLEGAL_TRANSITION"
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, "VALIDATION_ERROR"
	case errors.As(err, &retrievalErr):
		return fiber.StatusBadGateway, "RETRIEVAL_ERROR"
	case errors.As(err, &providerErr):
		return fiber.StatusBadGateway, "PROVIDER_ERROR"
	case errors.As(err, &sdkErr):
		return fiber.StatusBadGateway, "SDK_ERROR"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}
