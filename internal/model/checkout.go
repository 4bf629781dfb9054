package model

// CreatePaymentIntentRequest is the DTO for POST /create-payment-intent
// Amount is in minor currency units.
type CreatePaymentIntentRequest struct {
	Amount         int64            `json:"amount" validate:"required,gt=0"`
	Shipping       *ShippingDetails `json:"shipping" validate:"omitempty"`
	ReceiptEmail   string           `json:"receipt_email" validate:"omitempty,email,max=255"`
	Coupon         string           `json:"coupon" validate:"omitempty,uuid"`
	AnalyticsID    string           `json:"analyticsId" validate:"omitempty,uuid"`
	ShippingMethod string           `json:"shippingMethod" validate:"omitempty,max=64"`
}

// ShippingDetails is the recipient attached to a payment intent.
type ShippingDetails struct {
	Name    string          `json:"name" validate:"required,notblank,max=255"`
	Phone   string          `json:"phone" validate:"omitempty,max=32"`
	Address ShippingAddress `json:"address"`
}

// ShippingAddress is a postal address. Country is an ISO 3166-1 alpha-2 code.
type ShippingAddress struct {
	Line1      string `json:"line1" validate:"required,notblank,max=255"`
	Line2      string `json:"line2" validate:"omitempty,max=255"`
	City       string `json:"city" validate:"required,notblank,max=255"`
	State      string `json:"state" validate:"omitempty,max=255"`
	PostalCode string `json:"postal_code" validate:"required,notblank,max=32"`
	Country    string `json:"country" validate:"required,len=2"`
}

// PaymentIntent is the part of a created payment intent the storefront needs.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

// ReturnRequest is the DTO for POST /send-return-request
type ReturnRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	OrderNumber string `json:"orderNumber" validate:"required,notblank,max=64"`
	Reason      string `json:"reason" validate:"required,notblank,max=2000"`
}
