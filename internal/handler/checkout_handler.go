package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
)

// PaymentIntentCreator creates payment intents with the payment processor.
type PaymentIntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req *model.CreatePaymentIntentRequest) (*model.PaymentIntent, error)
}

// CheckoutHandler handles HTTP requests for starting a payment.
type CheckoutHandler struct {
	payments  PaymentIntentCreator
	validator *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(payments PaymentIntentCreator, v *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{payments: payments, validator: v}
}

// CreatePaymentIntent handles POST /create-payment-intent requests.
func (h *CheckoutHandler) CreatePaymentIntent(c *fiber.Ctx) error {
	var req model.CreatePaymentIntentRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	intent, err := h.payments.CreatePaymentIntent(c.Context(), &req)
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Int64("amount", req.Amount).
			Str("coupon", req.Coupon).
			Msg("failed to create payment intent")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create payment intent"})
	}

	log.Info().
		Str("payment_intent_id", intent.ID).
		Int64("amount", req.Amount).
		Str("coupon", req.Coupon).
		Msg("payment intent created")

	return c.JSON(fiber.Map{"clientSecret": intent.ClientSecret})
}
