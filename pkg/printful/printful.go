// Package printful is a minimal client for the Printful store products API.
package printful

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/apparel-storefront/pkg/apiclient"
)

// DefaultBaseURL is the production Printful API.
const DefaultBaseURL = "https://api.printful.com"

// ProductSummary is an entry of the store products listing.
type ProductSummary struct {
	ID           int64  `json:"id"`
	ExternalID   string `json:"external_id"`
	Name         string `json:"name"`
	Variants     int    `json:"variants"`
	Synced       int    `json:"synced"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsIgnored    bool   `json:"is_ignored"`
}

// SyncProduct is the product part of a product detail response.
type SyncProduct struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// SyncVariant is a purchasable variant of a store product.
// RetailPrice is a decimal string in major currency units, e.g. "24.50".
type SyncVariant struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	RetailPrice        string `json:"retail_price"`
	Currency           string `json:"currency"`
	Color              string `json:"color"`
	Size               string `json:"size"`
	IsIgnored          bool   `json:"is_ignored"`
	AvailabilityStatus string `json:"availability_status"`
	Files              []File `json:"files"`
}

// File is a print or preview file attached to a variant.
type File struct {
	Type       string `json:"type"`
	PreviewURL string `json:"preview_url"`
}

// ProductDetail is a store product with its variants.
type ProductDetail struct {
	SyncProduct  SyncProduct   `json:"sync_product"`
	SyncVariants []SyncVariant `json:"sync_variants"`
}

type listResponse struct {
	Code   int              `json:"code"`
	Result []ProductSummary `json:"result"`
}

type detailResponse struct {
	Code   int           `json:"code"`
	Result ProductDetail `json:"result"`
}

// Client calls the Printful API with a private token scoped to one store.
type Client struct {
	baseURL string
	apiKey  string
	storeID string
}

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey, storeID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, storeID: storeID}
}

// ListProducts returns one page of store products.
func (c *Client) ListProducts(ctx context.Context, offset, limit int) ([]ProductSummary, error) {
	var resp listResponse
	url := fmt.Sprintf("%s/store/products?offset=%d&limit=%d", c.baseURL, offset, limit)
	if err := apiclient.Do(ctx, "printful", c.get(url), &resp); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return resp.Result, nil
}

// GetProduct returns a store product with all of its variants.
func (c *Client) GetProduct(ctx context.Context, id int64) (*ProductDetail, error) {
	var resp detailResponse
	url := fmt.Sprintf("%s/store/products/%d", c.baseURL, id)
	if err := apiclient.Do(ctx, "printful", c.get(url), &resp); err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &resp.Result, nil
}

func (c *Client) get(url string) *fiber.Agent {
	agent := fiber.Get(url)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	if c.storeID != "" {
		agent.Set("X-PF-Store-Id", c.storeID)
	}
	return agent
}
