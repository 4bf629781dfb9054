// Package payment creates payment intents and verifies payment webhooks with Stripe.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
)

// Metadata keys attached to payment intents.
const (
	MetadataCoupon         = "coupon"
	MetadataAnalyticsID    = "analytics_id"
	MetadataShippingMethod = "shipping_method"
)

var (
	// ErrSignatureInvalid is returned when a webhook payload fails verification
	ErrSignatureInvalid = errors.New("invalid webhook signature")

	// ErrMalformedEvent is returned when a verified event cannot be decoded
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// EventKind classifies payment webhook events.
type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentFailed    EventKind = "payment_failed"
	EventPaymentCanceled  EventKind = "payment_canceled"
	EventOther            EventKind = "other"
)

// Event is a verified payment webhook event.
type Event struct {
	ID              string
	Type            string
	Kind            EventKind
	PaymentIntentID string
	Metadata        map[string]string
}

// IntentCreator creates Stripe payment intents.
type IntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Gateway talks to Stripe.
type Gateway struct {
	intents       IntentCreator
	webhookSecret string
	currency      string
}

// NewStripeGateway creates a Gateway from a secret key and webhook signing secret.
func NewStripeGateway(secretKey, webhookSecret, currency string) *Gateway {
	sc := client.New(secretKey, nil)
	return NewGateway(sc.PaymentIntents, webhookSecret, currency)
}

// NewGateway creates a Gateway with a custom IntentCreator.
// Primarily used for testing.
func NewGateway(intents IntentCreator, webhookSecret, currency string) *Gateway {
	return &Gateway{intents: intents, webhookSecret: webhookSecret, currency: currency}
}

// CreatePaymentIntent creates a payment intent for req.Amount minor units.
// Coupon, analytics id and shipping method travel as metadata so the webhook can
// reconcile the promo usage later.
func (g *Gateway) CreatePaymentIntent(ctx context.Context, req *model.CreatePaymentIntentRequest) (*model.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if s := req.Shipping; s != nil {
		params.Shipping = &stripe.ShippingDetailsParams{
			Name: stripe.String(s.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(s.Address.Line1),
				City:       stripe.String(s.Address.City),
				PostalCode: stripe.String(s.Address.PostalCode),
				Country:    stripe.String(s.Address.Country),
			},
		}
		if s.Phone != "" {
			params.Shipping.Phone = stripe.String(s.Phone)
		}
		if s.Address.Line2 != "" {
			params.Shipping.Address.Line2 = stripe.String(s.Address.Line2)
		}
		if s.Address.State != "" {
			params.Shipping.Address.State = stripe.String(s.Address.State)
		}
	}
	if req.Coupon != "" {
		params.AddMetadata(MetadataCoupon, req.Coupon)
	}
	if req.AnalyticsID != "" {
		params.AddMetadata(MetadataAnalyticsID, req.AnalyticsID)
	}
	if req.ShippingMethod != "" {
		params.AddMetadata(MetadataShippingMethod, req.ShippingMethod)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &model.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ParseWebhook verifies a webhook payload against its Stripe-Signature header and
// decodes it. Returns ErrSignatureInvalid when verification fails.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type), Kind: kindOf(string(event.Type))}
	if out.Kind == EventOther {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if event.Data == nil {
		return nil, ErrMalformedEvent
	}
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	out.PaymentIntentID = pi.ID
	out.Metadata = pi.Metadata
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out, nil
}

func kindOf(eventType string) EventKind {
	switch eventType {
	case "payment_intent.succeeded":
		return EventPaymentSucceeded
	case "payment_intent.payment_failed":
		return EventPaymentFailed
	case "payment_intent.canceled":
		return EventPaymentCanceled
	default:
		return EventOther
	}
}
