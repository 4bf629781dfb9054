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

// PromoServiceInterface defines the interface for promo code validation.
type PromoServiceInterface interface {
	ApplyCode(ctx context.Context, in service.ApplyCodeInput) (*model.ValidatePromoResponse, error)
}

// PromoHandler handles HTTP requests for promo code validation.
type PromoHandler struct {
	service   PromoServiceInterface
	validator *validator.Validate
}

// NewPromoHandler creates a new PromoHandler with the given service and validator.
func NewPromoHandler(svc PromoServiceInterface, v *validator.Validate) *PromoHandler {
	return &PromoHandler{service: svc, validator: v}
}

// ValidatePromo handles POST /validate-promo requests.
// Responds with the discount, the coupon id and the analytics id of the tracked attempt.
func (h *PromoHandler) ValidatePromo(c *fiber.Ctx) error {
	var req model.ValidatePromoRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	resp, err := h.service.ApplyCode(c.Context(), service.ApplyCodeInput{
		Code:       req.Code,
		Subtotal:   *req.Subtotal,
		CustomerID: req.CustomerID,
		IP:         c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		var promoErr *service.PromoError
		switch {
		case errors.As(err, &promoErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": promoErr.Message})
		case errors.Is(err, service.ErrRateLimited):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many attempts, please try again later",
			})
		case errors.Is(err, service.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Str("code", req.Code).
			Msg("failed to validate promo code")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("coupon_id", resp.CouponID.String()).
		Str("discount", resp.Discount.String()).
		Msg("promo code applied")

	return c.JSON(resp)
}
