package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PromoValidations counts promo validation attempts by outcome
	PromoValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_promo_validations_total",
			Help: "Promo code validation attempts by outcome",
		},
		[]string{"outcome"}, // valid, rate_limited, invalid_code, inactive, expired, ...
	)

	// PromoValidationDuration tracks the latency of promo validation
	PromoValidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "storefront_promo_validation_duration_seconds",
			Help: "Duration of promo code validations in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
			},
		},
	)

	// PromoConversions counts analytics transitions driven by payment outcomes
	PromoConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_promo_conversions_total",
			Help: "Promo analytics status transitions",
		},
		[]string{"status", "result"}, // completed/abandoned, ok/error
	)

	// CatalogFetchDuration tracks full vendor catalog fetches
	CatalogFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_catalog_fetch_duration_seconds",
			Help:    "Duration of full vendor catalog fetches in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"status"}, // success or failure
	)

	// CatalogServed counts catalog reads by cache state
	CatalogServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_catalog_served_total",
			Help: "Catalog reads by cache state",
		},
		[]string{"state"}, // cold, fresh, stale
	)

	// WebhookEvents counts payment webhook events by type
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_payment_webhook_events_total",
			Help: "Payment webhook events received by type",
		},
		[]string{"type"},
	)
)

// RecordPromoValidation records the outcome and duration of a promo validation
func RecordPromoValidation(outcome string, duration float64) {
	PromoValidations.WithLabelValues(outcome).Inc()
	PromoValidationDuration.Observe(duration)
}

// RecordCatalogFetch records the duration of a full catalog fetch
func RecordCatalogFetch(status string, duration float64) {
	CatalogFetchDuration.WithLabelValues(status).Observe(duration)
}

// RecordConversion records an analytics status transition attempt
func RecordConversion(status, result string) {
	PromoConversions.WithLabelValues(status, result).Inc()
}
