package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/apparel-storefront/internal/metrics"
	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/pkg/database"
)

var hundred = decimal.NewFromInt(100)

// PromoCodeRepositoryInterface defines the interface for promo code data access.
type PromoCodeRepositoryInterface interface {
	Insert(ctx context.Context, promo *model.PromoCode) error
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error)
	List(ctx context.Context) ([]model.PromoCode, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
	RecordRedemption(ctx context.Context, tx database.TxQuerier, paymentRef string, couponID uuid.UUID, analyticsID *uuid.UUID) (bool, error)
}

// AnalyticsRepositoryInterface defines the interface for promo analytics data access.
type AnalyticsRepositoryInterface interface {
	Insert(ctx context.Context, record *model.PromoAnalytics) error
	UpdateStatus(ctx context.Context, tx database.TxQuerier, id uuid.UUID, couponID *uuid.UUID, status model.ConversionStatus, completedAt *time.Time, orderID string) error
	FindForPayment(ctx context.Context, couponID uuid.UUID, paymentRef string) (*model.PromoAnalytics, error)
	List(ctx context.Context, couponID *uuid.UUID, rng model.StatsRange) ([]model.PromoAnalytics, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// PromoService provides promo code validation, usage tracking and reconciliation.
type PromoService struct {
	pool          TxBeginner
	promoRepo     PromoCodeRepositoryInterface
	analyticsRepo AnalyticsRepositoryInterface
	limiter       RateLimiter
	now           func() time.Time
}

// NewPromoService creates a new PromoService with the given pool, repositories and limiter.
func NewPromoService(pool *pgxpool.Pool, promoRepo PromoCodeRepositoryInterface, analyticsRepo AnalyticsRepositoryInterface, limiter RateLimiter) *PromoService {
	return NewPromoServiceWithTxBeginner(pool, promoRepo, analyticsRepo, limiter)
}

// NewPromoServiceWithTxBeginner creates a PromoService with a custom TxBeginner.
// Primarily used for testing.
func NewPromoServiceWithTxBeginner(pool TxBeginner, promoRepo PromoCodeRepositoryInterface, analyticsRepo AnalyticsRepositoryInterface, limiter RateLimiter) *PromoService {
	return &PromoService{
		pool:          pool,
		promoRepo:     promoRepo,
		analyticsRepo: analyticsRepo,
		limiter:       limiter,
		now:           time.Now,
	}
}

// ApplyCodeInput carries a validate-promo request together with the caller's identity.
type ApplyCodeInput struct {
	Code       string
	Subtotal   decimal.Decimal
	CustomerID *string
	IP         string
	UserAgent  string
}

// ApplyCode validates a code and records a pending analytics entry for the attempt.
// A failure to record analytics is logged and the discount is still returned.
func (s *PromoService) ApplyCode(ctx context.Context, in ApplyCodeInput) (*model.ValidatePromoResponse, error) {
	v, err := s.ValidateCode(ctx, in.Code, in.Subtotal, in.IP, in.CustomerID)
	if err != nil {
		return nil, err
	}

	resp := &model.ValidatePromoResponse{Discount: v.Discount, CouponID: v.CouponID}

	final := in.Subtotal.Sub(v.Discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	id, err := s.TrackPromoUsage(ctx, model.PromoUsage{
		CouponID:       v.CouponID,
		OrderID:        model.OrderPending,
		CustomerID:     in.CustomerID,
		DiscountAmount: v.Discount,
		OriginalAmount: in.Subtotal,
		FinalAmount:    final,
		IPAddress:      in.IP,
		UserAgent:      in.UserAgent,
	})
	if err != nil {
		log.Error().Err(err).Str("coupon_id", v.CouponID.String()).Msg("failed to track promo usage")
		return resp, nil
	}
	resp.AnalyticsID = &id
	return resp, nil
}

// ValidateCode checks a promo code against its persisted record and computes the discount.
// The first failing check wins, in this order: rate limit, lookup, active, expiry,
// usage limit, minimum purchase, customer restriction.
// The promo code record itself is not modified.
func (s *PromoService) ValidateCode(ctx context.Context, code string, subtotal decimal.Decimal, ip string, customerID *string) (*model.PromoValidation, error) {
	start := time.Now()
	v, err := s.validateCode(ctx, code, subtotal, ip, customerID)
	metrics.RecordPromoValidation(validationOutcome(err), time.Since(start).Seconds())
	return v, err
}

func (s *PromoService) validateCode(ctx context.Context, code string, subtotal decimal.Decimal, ip string, customerID *string) (*model.PromoValidation, error) {
	allowed, err := s.limiter.Allow(ctx, ip)
	if err != nil {
		// Fail open.
		log.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable, allowing promo validation")
	} else if !allowed {
		return nil, ErrRateLimited
	}

	code = strings.TrimSpace(code)
	if code == "" || subtotal.IsNegative() {
		return nil, ErrInvalidRequest
	}

	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	if promo == nil {
		return nil, promoError(ErrInvalidCode, "invalid promo code")
	}

	if !promo.Active {
		return nil, promoError(ErrInactive, "this promo code is no longer active")
	}
	if promo.ExpiresAt != nil && s.now().After(*promo.ExpiresAt) {
		return nil, promoError(ErrExpired, "this promo code has expired")
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return nil, promoError(ErrLimitReached, "this promo code has reached its usage limit")
	}
	if promo.MinPurchase.Valid && subtotal.LessThan(promo.MinPurchase.Decimal) {
		return nil, promoError(ErrMinimumNotMet,
			fmt.Sprintf("minimum purchase of $%s required for this promo code", promo.MinPurchase.Decimal.StringFixed(2)))
	}
	if promo.CustomerID != nil && (customerID == nil || *customerID != *promo.CustomerID) {
		return nil, promoError(ErrNotEligible, "this promo code is not valid for your account")
	}

	return &model.PromoValidation{
		Discount: CalculateDiscount(promo, subtotal),
		CouponID: promo.ID,
	}, nil
}

// CalculateDiscount computes the discount a promo code grants on subtotal.
// Percentage discounts are rounded to cents and capped at MaxDiscount.
// Fixed discounts are returned as-is, even when they exceed the subtotal.
func CalculateDiscount(promo *model.PromoCode, subtotal decimal.Decimal) decimal.Decimal {
	switch promo.DiscountType {
	case model.DiscountPercentage:
		discount := subtotal.Mul(promo.Value).Div(hundred).Round(2)
		if promo.MaxDiscount.Valid && discount.GreaterThan(promo.MaxDiscount.Decimal) {
			discount = promo.MaxDiscount.Decimal
		}
		return discount
	case model.DiscountFixed:
		return promo.Value
	default:
		return decimal.Zero
	}
}

func validationOutcome(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrLimitReached):
		return "limit_reached"
	case errors.Is(err, ErrMinimumNotMet):
		return "minimum_not_met"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	default:
		return "error"
	}
}

// CreatePromoCode creates a promo code from an administrative request.
// Returns ErrPromoCodeExists if the code is already taken (case-insensitive).
// Returns ErrInvalidRequest if the discount settings are inconsistent.
func (s *PromoService) CreatePromoCode(ctx context.Context, req *model.CreatePromoCodeRequest) (*model.PromoCode, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" || !req.Value.IsPositive() {
		return nil, ErrInvalidRequest
	}
	if req.DiscountType != model.DiscountPercentage && req.DiscountType != model.DiscountFixed {
		return nil, ErrInvalidRequest
	}
	if req.DiscountType == model.DiscountPercentage && req.Value.GreaterThan(hundred) {
		return nil, ErrInvalidRequest
	}
	if (req.MinPurchase.Valid && req.MinPurchase.Decimal.IsNegative()) ||
		(req.MaxDiscount.Valid && !req.MaxDiscount.Decimal.IsPositive()) {
		return nil, ErrInvalidRequest
	}
	if req.UsageLimit != nil && *req.UsageLimit < 1 {
		return nil, ErrInvalidRequest
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	promo := &model.PromoCode{
		ID:           uuid.New(),
		Code:         code,
		DiscountType: req.DiscountType,
		Value:        req.Value,
		MinPurchase:  req.MinPurchase,
		MaxDiscount:  req.MaxDiscount,
		ExpiresAt:    req.ExpiresAt,
		UsageLimit:   req.UsageLimit,
		Active:       active,
		CustomerID:   normalizeCustomerID(req.CustomerID),
		CreatedAt:    s.now(),
	}
	if err := s.promoRepo.Insert(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

// GetPromoCode retrieves a promo code by id.
// Returns ErrPromoCodeNotFound if it doesn't exist.
func (s *PromoService) GetPromoCode(ctx context.Context, id uuid.UUID) (*model.PromoCode, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	if promo == nil {
		return nil, ErrPromoCodeNotFound
	}
	return promo, nil
}

// ListPromoCodes returns every promo code, newest first.
func (s *PromoService) ListPromoCodes(ctx context.Context) ([]model.PromoCode, error) {
	return s.promoRepo.List(ctx)
}

// DeletePromoCode permanently removes a promo code.
func (s *PromoService) DeletePromoCode(ctx context.Context, id uuid.UUID) error {
	return s.promoRepo.Delete(ctx, id)
}

func normalizeCustomerID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return id
}
