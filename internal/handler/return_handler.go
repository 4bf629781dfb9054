package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/internal/service"
)

// ReturnServiceInterface defines the interface for submitting return requests.
type ReturnServiceInterface interface {
	Submit(ctx context.Context, ip string, req *model.ReturnRequest) error
}

// ReturnHandler handles HTTP requests for order returns.
type ReturnHandler struct {
	service   ReturnServiceInterface
	validator *validator.Validate
}

// NewReturnHandler creates a new ReturnHandler with the given service and validator.
func NewReturnHandler(svc ReturnServiceInterface, v *validator.Validate) *ReturnHandler {
	return &ReturnHandler{service: svc, validator: v}
}

// SendReturnRequest handles POST /send-return-request requests.
func (h *ReturnHandler) SendReturnRequest(c *fiber.Ctx) error {
	var req model.ReturnRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.service.Submit(c.Context(), c.IP(), &req); err != nil {
		if errors.Is(err, service.ErrRateLimited) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many return requests, please try again later",
			})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("ip", c.IP()).
			Str("order_number", req.OrderNumber).
			Msg("failed to send return request")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to send return request"})
	}

	log.Info().Str("order_number", req.OrderNumber).Msg("return request sent")
	return c.JSON(fiber.Map{"success": true})
}
