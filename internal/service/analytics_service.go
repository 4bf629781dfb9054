package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/apparel-storefront/internal/metrics"
	"github.com/fairyhunter13/apparel-storefront/internal/model"
)

// TrackPromoUsage records a pending analytics entry for a validated promo code.
// A nil CustomerID is stored as NULL.
func (s *PromoService) TrackPromoUsage(ctx context.Context, usage model.PromoUsage) (uuid.UUID, error) {
	orderID := usage.OrderID
	if orderID == "" {
		orderID = model.OrderPending
	}

	record := &model.PromoAnalytics{
		ID:               uuid.New(),
		PromoCodeID:      usage.CouponID,
		OrderID:          orderID,
		CustomerID:       normalizeCustomerID(usage.CustomerID),
		DiscountAmount:   usage.DiscountAmount,
		OriginalAmount:   usage.OriginalAmount,
		FinalAmount:      usage.FinalAmount,
		IPAddress:        usage.IPAddress,
		UserAgent:        usage.UserAgent,
		CreatedAt:        s.now(),
		ConversionStatus: model.ConversionPending,
	}
	if err := s.analyticsRepo.Insert(ctx, record); err != nil {
		return uuid.Nil, fmt.Errorf("insert promo analytics: %w", err)
	}
	return record.ID, nil
}

// MarkPromoCodeAsUsed increments the usage count of a promo code by exactly one.
// The increment is a single UPDATE at the storage layer.
// Every failure wraps ErrUpdateFailed.
func (s *PromoService) MarkPromoCodeAsUsed(ctx context.Context, couponID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %w", ErrUpdateFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.promoRepo.IncrementUsage(ctx, tx, couponID); err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrUpdateFailed, err)
	}
	return nil
}

// UpdateConversionStatus moves an analytics record to completed or abandoned.
// The completion timestamp is set for completed and cleared otherwise.
// Returns ErrAnalyticsNotPending if the transition is not allowed.
func (s *PromoService) UpdateConversionStatus(ctx context.Context, analyticsID uuid.UUID, status model.ConversionStatus) error {
	return s.transition(ctx, analyticsID, nil, status, "")
}

func (s *PromoService) transition(ctx context.Context, analyticsID uuid.UUID, couponID *uuid.UUID, status model.ConversionStatus, orderRef string) error {
	if !status.Terminal() {
		return ErrInvalidStatus
	}

	var completedAt *time.Time
	if status == model.ConversionCompleted {
		now := s.now()
		completedAt = &now
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.analyticsRepo.UpdateStatus(ctx, tx, analyticsID, couponID, status, completedAt, orderRef); err != nil {
		metrics.RecordConversion(string(status), "error")
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		metrics.RecordConversion(string(status), "error")
		return fmt.Errorf("commit: %w", err)
	}
	metrics.RecordConversion(string(status), "ok")
	return nil
}

// CompleteRedemption reconciles a successful payment that carried a coupon.
// The usage count is incremented exactly once per paymentRef: the payment is claimed
// in the redemption ledger and counted in the same transaction, and a redelivered
// event returns ErrPaymentAlreadyReconciled.
// The analytics record is completed in that transaction on a best-effort basis. When
// analyticsID is nil the record already tied to paymentRef, or else the latest pending
// record of the coupon, is used. A missing or already completed record does not stop
// the usage from being counted.
func (s *PromoService) CompleteRedemption(ctx context.Context, couponID uuid.UUID, analyticsID *uuid.UUID, paymentRef string) error {
	if paymentRef == "" {
		return ErrInvalidRequest
	}
	id, err := s.resolveAnalytics(ctx, couponID, analyticsID, paymentRef)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	first, err := s.promoRepo.RecordRedemption(ctx, tx, paymentRef, couponID, id)
	if err != nil {
		metrics.RecordConversion(string(model.ConversionCompleted), "error")
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	if !first {
		return ErrPaymentAlreadyReconciled
	}

	if err := s.promoRepo.IncrementUsage(ctx, tx, couponID); err != nil {
		metrics.RecordConversion(string(model.ConversionCompleted), "error")
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}

	logger := log.With().Str("coupon_id", couponID.String()).Str("payment_ref", paymentRef).Logger()
	if id != nil {
		now := s.now()
		err := s.analyticsRepo.UpdateStatus(ctx, tx, *id, &couponID, model.ConversionCompleted, &now, paymentRef)
		switch {
		case err == nil:
		case errors.Is(err, ErrAnalyticsNotPending), errors.Is(err, ErrAnalyticsNotFound):
			logger.Warn().Err(err).Str("analytics_id", id.String()).Msg("promo analytics not completed, usage still counted")
		default:
			metrics.RecordConversion(string(model.ConversionCompleted), "error")
			return fmt.Errorf("complete analytics %s: %w", id, err)
		}
	} else {
		logger.Warn().Msg("no promo analytics for completed payment")
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.RecordConversion(string(model.ConversionCompleted), "error")
		return fmt.Errorf("commit: %w", err)
	}
	metrics.RecordConversion(string(model.ConversionCompleted), "ok")
	return nil
}

// AbandonRedemption reconciles a failed or canceled payment that carried a coupon.
// The analytics record is tied to paymentRef so a later success of the same payment
// completes it. The usage count is left untouched.
func (s *PromoService) AbandonRedemption(ctx context.Context, couponID uuid.UUID, analyticsID *uuid.UUID, paymentRef string) error {
	id, err := s.resolveAnalytics(ctx, couponID, analyticsID, paymentRef)
	if err != nil {
		return err
	}
	if id == nil {
		return ErrAnalyticsNotFound
	}
	return s.transition(ctx, *id, &couponID, model.ConversionAbandoned, paymentRef)
}

func (s *PromoService) resolveAnalytics(ctx context.Context, couponID uuid.UUID, analyticsID *uuid.UUID, paymentRef string) (*uuid.UUID, error) {
	if analyticsID != nil {
		return analyticsID, nil
	}
	record, err := s.analyticsRepo.FindForPayment(ctx, couponID, paymentRef)
	if err != nil {
		return nil, fmt.Errorf("find analytics: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return &record.ID, nil
}

// GetPromoCodeStats aggregates the analytics of one promo code within rng.
func (s *PromoService) GetPromoCodeStats(ctx context.Context, couponID uuid.UUID, rng model.StatsRange) (*model.PromoCodeStats, error) {
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	records, err := s.analyticsRepo.List(ctx, &couponID, rng)
	if err != nil {
		return nil, fmt.Errorf("list promo analytics: %w", err)
	}
	stats := ComputeStats(couponID, records)
	return &stats, nil
}

// GetTopPerformingPromoCodes returns up to limit promo codes ordered by revenue generated.
func (s *PromoService) GetTopPerformingPromoCodes(ctx context.Context, limit int, rng model.StatsRange) ([]model.PromoCodeStats, error) {
	if limit <= 0 {
		return nil, ErrInvalidRequest
	}
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	records, err := s.analyticsRepo.List(ctx, nil, rng)
	if err != nil {
		return nil, fmt.Errorf("list promo analytics: %w", err)
	}

	top := TopPerforming(records, limit)
	for i := range top {
		promo, err := s.promoRepo.GetByID(ctx, top[i].PromoCodeID)
		if err != nil {
			log.Warn().Err(err).Str("coupon_id", top[i].PromoCodeID.String()).Msg("failed to resolve promo code")
			continue
		}
		if promo != nil {
			top[i].Code = promo.Code
		}
	}
	return top, nil
}

func validateRange(rng model.StatsRange) error {
	if rng.Start != nil && rng.End != nil && rng.End.Before(*rng.Start) {
		return ErrInvalidRequest
	}
	return nil
}

// ComputeStats aggregates analytics records.
// Rates and averages are zero for an empty record set.
func ComputeStats(couponID uuid.UUID, records []model.PromoAnalytics) model.PromoCodeStats {
	stats := model.PromoCodeStats{
		PromoCodeID:      couponID,
		TotalDiscount:    decimal.Zero,
		AverageDiscount:  decimal.Zero,
		RevenueGenerated: decimal.Zero,
	}

	completed := 0
	customers := make(map[string]struct{})
	for _, r := range records {
		stats.TotalUses++
		stats.TotalDiscount = stats.TotalDiscount.Add(r.DiscountAmount)
		if r.ConversionStatus == model.ConversionCompleted {
			completed++
			stats.RevenueGenerated = stats.RevenueGenerated.Add(r.FinalAmount)
		}
		if r.CustomerID != nil {
			customers[*r.CustomerID] = struct{}{}
		}
	}
	stats.UniqueCustomers = len(customers)

	if stats.TotalUses > 0 {
		stats.ConversionRate = float64(completed) / float64(stats.TotalUses) * 100
		stats.AverageDiscount = stats.TotalDiscount.DivRound(decimal.NewFromInt(int64(stats.TotalUses)), 2)
	}
	return stats
}

// TopPerforming groups records by promo code and returns the limit groups with the
// highest revenue. Ties keep the order of first appearance.
func TopPerforming(records []model.PromoAnalytics, limit int) []model.PromoCodeStats {
	groups := make(map[uuid.UUID][]model.PromoAnalytics)
	var order []uuid.UUID
	for _, r := range records {
		if _, ok := groups[r.PromoCodeID]; !ok {
			order = append(order, r.PromoCodeID)
		}
		groups[r.PromoCodeID] = append(groups[r.PromoCodeID], r)
	}

	all := make([]model.PromoCodeStats, 0, len(order))
	for _, id := range order {
		all = append(all, ComputeStats(id, groups[id]))
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RevenueGenerated.GreaterThan(all[j].RevenueGenerated)
	})

	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// IsReconciliationNoop reports whether err means a payment event has already been
// applied, so it can be acknowledged without further action.
func IsReconciliationNoop(err error) bool {
	return errors.Is(err, ErrPaymentAlreadyReconciled) || errors.Is(err, ErrAnalyticsNotPending)
}
