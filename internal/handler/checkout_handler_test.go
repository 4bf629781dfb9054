package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
	appvalidator "github.com/fairyhunter13/apparel-storefront/internal/validator"
)

// mockPaymentIntentCreator is a mock implementation of PaymentIntentCreator.
type mockPaymentIntentCreator struct {
	createFn func(ctx context.Context, req *model.CreatePaymentIntentRequest) (*model.PaymentIntent, error)
}

func (m *mockPaymentIntentCreator) CreatePaymentIntent(ctx context.Context, req *model.CreatePaymentIntentRequest) (*model.PaymentIntent, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return &model.PaymentIntent{}, nil
}

func setupCheckoutTestApp(mock *mockPaymentIntentCreator) *fiber.App {
	app := fiber.New()
	h := NewCheckoutHandler(mock, appvalidator.New())
	app.Post("/create-payment-intent", h.CreatePaymentIntent)
	return app
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	var captured *model.CreatePaymentIntentRequest
	mock := &mockPaymentIntentCreator{
		createFn: func(ctx context.Context, req *model.CreatePaymentIntentRequest) (*model.PaymentIntent, error) {
			captured = req
			return &model.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret_abc"}, nil
		},
	}
	app := setupCheckoutTestApp(mock)

	body := `{
		"amount": 4599,
		"receipt_email": "buyer@example.com",
		"coupon": "0b9f6f7e-6a86-4d8c-9d0e-0b8f9c1c2d3e",
		"analyticsId": "5d1c0c44-8f0b-4d7e-a8f4-2d7c9f0e1a2b",
		"shippingMethod": "express",
		"shipping": {
			"name": "Ada Lovelace",
			"address": {"line1": "1 Main St", "city": "London", "postal_code": "N1 9GU", "country": "GB"}
		}
	}`
	resp, result := postJSON(t, app, "/create-payment-intent", body)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "pi_123_secret_abc", result["clientSecret"])
	assert.Len(t, result, 1, "only the client secret is exposed")

	require.NotNil(t, captured)
	assert.Equal(t, int64(4599), captured.Amount)
	assert.Equal(t, "express", captured.ShippingMethod)
	require.NotNil(t, captured.Shipping)
	assert.Equal(t, "GB", captured.Shipping.Address.Country)
}

func TestCreatePaymentIntent_RequestValidation(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed_json", `{"amount":`, "invalid request body"},
		{"missing_amount", `{}`, "invalid request: amount is required"},
		{"negative_amount", `{"amount": -5}`, "invalid request: amount must be greater than 0"},
		{"bad_email", `{"amount": 100, "receipt_email": "nope"}`, "invalid request: receipt_email must be a valid email address"},
		{"bad_coupon", `{"amount": 100, "coupon": "SAVE10"}`, "invalid request: coupon must be a valid UUID"},
		{"bad_country", `{"amount": 100, "shipping": {"name": "A", "address": {"line1": "x", "city": "y", "postal_code": "z", "country": "GBR"}}}`, "invalid request: country must be exactly 2 characters"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			mock := &mockPaymentIntentCreator{
				createFn: func(ctx context.Context, req *model.CreatePaymentIntentRequest) (*model.PaymentIntent, error) {
					called = true
					return &model.PaymentIntent{}, nil
				},
			}
			app := setupCheckoutTestApp(mock)

			resp, result := postJSON(t, app, "/create-payment-intent", tc.body)

			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.message, result["error"])
			assert.False(t, called)
		})
	}
}

func TestCreatePaymentIntent_ProcessorError(t *testing.T) {
	mock := &mockPaymentIntentCreator{
		createFn: func(ctx context.Context, req *model.CreatePaymentIntentRequest) (*model.PaymentIntent, error) {
			return nil, errors.New("card_declined")
		},
	}
	app := setupCheckoutTestApp(mock)

	resp, result := postJSON(t, app, "/create-payment-intent", `{"amount": 100}`)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "failed to create payment intent", result["error"])
}
