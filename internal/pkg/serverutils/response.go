package serverutils

import (
	"errors"

	"ai-realtime-relay/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

type APIResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Message: message,
		Data:    data,
	}
}

// ErrorHandlerMiddleware maps domain errors to HTTP responses so controllers
// can just return them.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		var ingErr *rag.IngestionError

		switch {
		case errors.Is(err, rag.ErrUnsupportedMediaType):
			status = fiber.StatusUnsupportedMediaType
		case errors.As(err, &ingErr):
			status = fiber.StatusBadGateway
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
		}

		return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
}
