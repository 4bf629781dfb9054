package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/internal/service"
)

const defaultTopLimit = 10

// PromoAdminService defines the administrative promo code operations.
type PromoAdminService interface {
	CreatePromoCode(ctx context.Context, req *model.CreatePromoCodeRequest) (*model.PromoCode, error)
	GetPromoCode(ctx context.Context, id uuid.UUID) (*model.PromoCode, error)
	ListPromoCodes(ctx context.Context) ([]model.PromoCode, error)
	DeletePromoCode(ctx context.Context, id uuid.UUID) error
	GetPromoCodeStats(ctx context.Context, couponID uuid.UUID, rng model.StatsRange) (*model.PromoCodeStats, error)
	GetTopPerformingPromoCodes(ctx context.Context, limit int, rng model.StatsRange) ([]model.PromoCodeStats, error)
}

// AdminHandler handles the administrative promo code API.
type AdminHandler struct {
	service   PromoAdminService
	validator *validator.Validate
}

// NewAdminHandler creates a new AdminHandler with the given service and validator.
func NewAdminHandler(svc PromoAdminService, v *validator.Validate) *AdminHandler {
	return &AdminHandler{service: svc, validator: v}
}

// CreatePromoCode handles POST /admin/promo-codes requests.
func (h *AdminHandler) CreatePromoCode(c *fiber.Ctx) error {
	var req model.CreatePromoCodeRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	promo, err := h.service.CreatePromoCode(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrPromoCodeExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "promo code already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("code", req.Code).Msg("failed to create promo code")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("coupon_id", promo.ID.String()).Str("code", promo.Code).Msg("promo code created")
	return c.Status(fiber.StatusCreated).JSON(promo)
}

// ListPromoCodes handles GET /admin/promo-codes requests.
func (h *AdminHandler) ListPromoCodes(c *fiber.Ctx) error {
	promos, err := h.service.ListPromoCodes(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list promo codes")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(promos)
}

// GetPromoCode handles GET /admin/promo-codes/:id requests.
func (h *AdminHandler) GetPromoCode(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid UUID"})
	}

	promo, err := h.service.GetPromoCode(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPromoCodeNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "promo code not found"})
		}
		log.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to get promo code")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(promo)
}

// DeletePromoCode handles DELETE /admin/promo-codes/:id requests.
func (h *AdminHandler) DeletePromoCode(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid UUID"})
	}

	if err := h.service.DeletePromoCode(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrPromoCodeNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "promo code not found"})
		}
		log.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to delete promo code")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("coupon_id", id.String()).Msg("promo code deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPromoCodeStats handles GET /admin/promo-codes/:id/stats requests.
// Optional start and end query parameters are RFC 3339 timestamps.
func (h *AdminHandler) GetPromoCodeStats(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a valid UUID"})
	}
	rng, err := parseStatsRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	stats, err := h.service.GetPromoCodeStats(c.Context(), id, rng)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: end must not be before start"})
		}
		log.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to compute promo code stats")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(stats)
}

// GetTopPromoCodes handles GET /admin/promo-codes/top requests.
func (h *AdminHandler) GetTopPromoCodes(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultTopLimit)
	if limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: limit must be at least 1"})
	}
	rng, err := parseStatsRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	top, err := h.service.GetTopPerformingPromoCodes(c.Context(), limit, rng)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: end must not be before start"})
		}
		log.Error().Err(err).Int("limit", limit).Msg("failed to compute top promo codes")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(top)
}

func parseStatsRange(c *fiber.Ctx) (model.StatsRange, error) {
	var rng model.StatsRange
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"start", &rng.Start}, {"end", &rng.End}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return rng, errors.New("invalid request: " + p.name + " must be an RFC 3339 timestamp")
		}
		*p.dst = &t
	}
	return rng, nil
}
