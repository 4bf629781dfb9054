package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/apparel-storefront/internal/metrics"
	"github.com/fairyhunter13/apparel-storefront/internal/payment"
	"github.com/fairyhunter13/apparel-storefront/internal/service"
)

// headerStripeSignature carries the webhook payload signature.
const headerStripeSignature = "Stripe-Signature"

// WebhookParser verifies and decodes payment webhooks.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*payment.Event, error)
}

// RedemptionReconciler applies payment outcomes to promo code usage.
type RedemptionReconciler interface {
	CompleteRedemption(ctx context.Context, couponID uuid.UUID, analyticsID *uuid.UUID, paymentRef string) error
	AbandonRedemption(ctx context.Context, couponID uuid.UUID, analyticsID *uuid.UUID, paymentRef string) error
}

// WebhookHandler handles payment processor webhooks.
type WebhookHandler struct {
	parser     WebhookParser
	reconciler RedemptionReconciler
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(parser WebhookParser, reconciler RedemptionReconciler) *WebhookHandler {
	return &WebhookHandler{parser: parser, reconciler: reconciler}
}

// HandlePayment handles POST /webhooks/payment requests.
// Only signature and decoding failures are reported to the sender. Reconciliation
// failures are logged and the event is still acknowledged.
func (h *WebhookHandler) HandlePayment(c *fiber.Ctx) error {
	event, err := h.parser.ParseWebhook(c.Body(), c.Get(headerStripeSignature))
	if err != nil {
		log.Warn().
			Err(err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("ip", c.IP()).
			Msg("rejected payment webhook")
		if errors.Is(err, payment.ErrSignatureInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed event"})
	}
	metrics.WebhookEvents.WithLabelValues(string(event.Kind)).Inc()

	if event.Kind != payment.EventOther {
		h.reconcile(c.Context(), event)
	}
	return c.JSON(fiber.Map{"received": true})
}

func (h *WebhookHandler) reconcile(ctx context.Context, event *payment.Event) {
	coupon := event.Metadata[payment.MetadataCoupon]
	if coupon == "" {
		return
	}

	logger := log.With().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Str("payment_intent_id", event.PaymentIntentID).
		Str("coupon_id", coupon).
		Logger()

	couponID, err := uuid.Parse(coupon)
	if err != nil {
		logger.Warn().Err(err).Msg("payment metadata carries an invalid coupon id")
		return
	}

	var analyticsID *uuid.UUID
	if raw := event.Metadata[payment.MetadataAnalyticsID]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			logger.Warn().Err(err).Str("analytics_id", raw).Msg("ignoring invalid analytics id")
		} else {
			analyticsID = &id
		}
	}

	switch event.Kind {
	case payment.EventPaymentSucceeded:
		err = h.reconciler.CompleteRedemption(ctx, couponID, analyticsID, event.PaymentIntentID)
	case payment.EventPaymentFailed, payment.EventPaymentCanceled:
		err = h.reconciler.AbandonRedemption(ctx, couponID, analyticsID, event.PaymentIntentID)
	}

	switch {
	case err == nil:
		logger.Info().Msg("promo redemption reconciled")
	case service.IsReconciliationNoop(err):
		logger.Info().Msg("promo redemption already reconciled")
	default:
		logger.Error().Err(err).Msg("failed to reconcile promo redemption")
	}
}
