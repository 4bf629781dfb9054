package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/apparel-storefront/internal/catalog"
	"github.com/fairyhunter13/apparel-storefront/internal/model"
)

const (
	catalogCacheControl = "max-age=3600, stale-while-revalidate=86400"
	headerCacheState    = "X-Cache"
)

// CatalogReader serves the cached product catalog.
type CatalogReader interface {
	Products(ctx context.Context) ([]model.Product, catalog.State, error)
	Product(ctx context.Context, id int64) (*model.Product, catalog.State, error)
}

// CatalogHandler handles HTTP requests for the product catalog.
type CatalogHandler struct {
	catalog CatalogReader
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(r CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: r}
}

// ListProducts handles GET /catalog/products requests.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	products, state, err := h.catalog.Products(c.Context())
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Msg("failed to load catalog")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load catalog"})
	}

	c.Set(fiber.HeaderCacheControl, catalogCacheControl)
	c.Set(headerCacheState, string(state))
	return c.JSON(products)
}

// GetProduct handles GET /catalog/products/:id requests.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id must be a positive integer"})
	}

	product, state, err := h.catalog.Product(c.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
		}
		log.Error().Err(err).Int64("product_id", id).Msg("failed to load product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load catalog"})
	}

	c.Set(fiber.HeaderCacheControl, catalogCacheControl)
	c.Set(headerCacheState, string(state))
	return c.JSON(product)
}
