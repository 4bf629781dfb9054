// Package catalog holds the vendor product catalog in memory.
//
// The first read blocks on a full fetch. Later reads are served from memory; once the
// snapshot is older than the freshness window a read triggers a background refresh and
// is still answered with the old snapshot. A refresher also re-fetches on a fixed
// interval regardless of traffic. Failed refreshes keep the previous snapshot.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/pkg/printful"
)

var (
	// ErrProductNotFound is returned when a product id is not in the catalog
	ErrProductNotFound = errors.New("product not found")

	// ErrFetchFailed wraps vendor failures of a blocking fetch
	ErrFetchFailed = errors.New("catalog fetch failed")
)

// Vendor is the print-on-demand catalog API.
type Vendor interface {
	ListProducts(ctx context.Context, offset, limit int) ([]printful.ProductSummary, error)
	GetProduct(ctx context.Context, id int64) (*printful.ProductDetail, error)
}

// Options configures a Cache.
type Options struct {
	FreshFor        time.Duration
	RefreshInterval time.Duration
	PageSize        int
	CustomMarker    string
}

// DefaultOptions matches the storefront's production settings.
func DefaultOptions() Options {
	return Options{
		FreshFor:        24 * time.Hour,
		RefreshInterval: 24 * time.Hour,
		PageSize:        50,
		CustomMarker:    "Custom",
	}
}

// fetchAll pages through the vendor listing until a short page, then loads every
// product's variants. Disabled and unavailable variants are kept.
func fetchAll(ctx context.Context, vendor Vendor, opts Options) ([]model.Product, error) {
	var summaries []printful.ProductSummary
	for offset := 0; ; offset += opts.PageSize {
		page, err := vendor.ListProducts(ctx, offset, opts.PageSize)
		if err != nil {
			return nil, fmt.Errorf("list products at offset %d: %w", offset, err)
		}
		summaries = append(summaries, page...)
		if len(page) < opts.PageSize {
			break
		}
	}

	products := make([]model.Product, 0, len(summaries))
	for _, s := range summaries {
		detail, err := vendor.GetProduct(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("get product %d: %w", s.ID, err)
		}
		products = append(products, toProduct(s, detail, opts.CustomMarker))
	}
	return products, nil
}

func toProduct(summary printful.ProductSummary, detail *printful.ProductDetail, marker string) model.Product {
	title := detail.SyncProduct.Name
	if title == "" {
		title = summary.Name
	}

	p := model.Product{
		ID:           summary.ID,
		Title:        title,
		Customizable: marker != "" && strings.Contains(title, marker),
		Variants:     make([]model.Variant, 0, len(detail.SyncVariants)),
		Images:       []string{},
	}

	seen := make(map[string]struct{})
	addImage := func(url string) {
		if url == "" {
			return
		}
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		p.Images = append(p.Images, url)
	}
	addImage(detail.SyncProduct.ThumbnailURL)
	addImage(summary.ThumbnailURL)

	for _, v := range detail.SyncVariants {
		available := v.AvailabilityStatus == "" || v.AvailabilityStatus == "active"
		price, err := priceInMinorUnits(v.RetailPrice)
		if err != nil {
			// Unpriced variants stay listed but are never available.
			log.Warn().Err(err).Int64("product_id", p.ID).Int64("variant_id", v.ID).Msg("variant has invalid price, marking unavailable")
			price, available = 0, false
		}
		p.Variants = append(p.Variants, model.Variant{
			ID:        v.ID,
			Title:     variantTitle(v),
			Price:     price,
			Enabled:   !v.IsIgnored,
			Available: available,
		})
		for _, f := range v.Files {
			if f.Type == "preview" {
				addImage(f.PreviewURL)
			}
		}
	}
	return p
}

func variantTitle(v printful.SyncVariant) string {
	switch {
	case v.Color != "" && v.Size != "":
		return v.Color + " / " + v.Size
	case v.Color != "":
		return v.Color
	case v.Size != "":
		return v.Size
	default:
		return v.Name
	}
}

func priceInMinorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative price %q", s)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
