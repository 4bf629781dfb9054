package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Money is rendered as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DiscountType describes how a promo code's value is applied to a subtotal.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PromoCode is a persisted discount code.
// Code is matched case-insensitively and stored upper-cased.
type PromoCode struct {
	ID           uuid.UUID           `json:"id"`
	Code         string              `json:"code"`
	DiscountType DiscountType        `json:"discount_type"`
	Value        decimal.Decimal     `json:"value"`
	MinPurchase  decimal.NullDecimal `json:"min_purchase"`
	MaxDiscount  decimal.NullDecimal `json:"max_discount"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
	UsageLimit   *int                `json:"usage_limit,omitempty"`
	UsageCount   int                 `json:"usage_count"`
	Active       bool                `json:"active"`
	CustomerID   *string             `json:"customer_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// PromoValidation is the outcome of a successful code validation.
type PromoValidation struct {
	Discount decimal.Decimal
	CouponID uuid.UUID
}

// ValidatePromoRequest is the DTO for POST /validate-promo
type ValidatePromoRequest struct {
	Code       string           `json:"code" validate:"required,notblank,max=64"`
	Subtotal   *decimal.Decimal `json:"subtotal" validate:"required"`
	CustomerID *string          `json:"customerId" validate:"omitempty,max=255"`
}

// ValidatePromoResponse is the API response DTO for POST /validate-promo
type ValidatePromoResponse struct {
	Discount    decimal.Decimal `json:"discount"`
	CouponID    uuid.UUID       `json:"couponId"`
	AnalyticsID *uuid.UUID      `json:"analyticsId,omitempty"`
}

// CreatePromoCodeRequest is the DTO for the administrative create action.
type CreatePromoCodeRequest struct {
	Code         string              `json:"code" validate:"required,promocode,max=64"`
	DiscountType DiscountType        `json:"discount_type" validate:"required,oneof=percentage fixed"`
	Value        decimal.Decimal     `json:"value"`
	MinPurchase  decimal.NullDecimal `json:"min_purchase"`
	MaxDiscount  decimal.NullDecimal `json:"max_discount"`
	ExpiresAt    *time.Time          `json:"expires_at"`
	UsageLimit   *int                `json:"usage_limit" validate:"omitempty,gte=1"`
	CustomerID   *string             `json:"customer_id" validate:"omitempty,notblank,max=255"`
	Active       *bool               `json:"active"`
}
