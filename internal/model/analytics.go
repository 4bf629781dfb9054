package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderPending is the order reference of an analytics record whose order does not exist yet.
const OrderPending = "pending"

// ConversionStatus is the lifecycle stage of a tracked promo usage.
type ConversionStatus string

const (
	ConversionPending   ConversionStatus = "pending"
	ConversionCompleted ConversionStatus = "completed"
	ConversionAbandoned ConversionStatus = "abandoned"
)

// Terminal reports whether no further transitions are allowed from s.
func (s ConversionStatus) Terminal() bool {
	return s == ConversionCompleted || s == ConversionAbandoned
}

// PromoAnalytics records one validated use of a promo code and its payment outcome.
type PromoAnalytics struct {
	ID               uuid.UUID        `json:"id"`
	PromoCodeID      uuid.UUID        `json:"promo_code_id"`
	OrderID          string           `json:"order_id"`
	CustomerID       *string          `json:"customer_id,omitempty"`
	DiscountAmount   decimal.Decimal  `json:"discount_amount"`
	OriginalAmount   decimal.Decimal  `json:"original_amount"`
	FinalAmount      decimal.Decimal  `json:"final_amount"`
	IPAddress        string           `json:"ip_address"`
	UserAgent        string           `json:"user_agent"`
	CreatedAt        time.Time        `json:"created_at"`
	ConversionStatus ConversionStatus `json:"conversion_status"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

// PromoUsage is the input for tracking a promo usage.
// CustomerID stays nil for anonymous checkouts.
type PromoUsage struct {
	CouponID       uuid.UUID
	OrderID        string
	CustomerID     *string
	DiscountAmount decimal.Decimal
	OriginalAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	IPAddress      string
	UserAgent      string
}

// StatsRange bounds analytics queries by creation time. Nil bounds are open.
type StatsRange struct {
	Start *time.Time
	End   *time.Time
}

// PromoCodeStats aggregates analytics records of one promo code.
type PromoCodeStats struct {
	PromoCodeID      uuid.UUID       `json:"promoCodeId"`
	Code             string          `json:"code,omitempty"`
	TotalUses        int             `json:"totalUses"`
	TotalDiscount    decimal.Decimal `json:"totalDiscount"`
	ConversionRate   float64         `json:"conversionRate"`
	AverageDiscount  decimal.Decimal `json:"averageDiscount"`
	RevenueGenerated decimal.Decimal `json:"revenueGenerated"`
	UniqueCustomers  int             `json:"uniqueCustomers"`
}
