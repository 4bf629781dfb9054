package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/internal/service"
	"github.com/fairyhunter13/apparel-storefront/pkg/database"
)

const analyticsColumns = `id, promo_code_id, order_id, customer_id, discount_amount, original_amount,
	final_amount, ip_address, user_agent, created_at, conversion_status, completed_at`

// AnalyticsRepository provides data access for promo analytics using pgx.
type AnalyticsRepository struct {
	pool PoolInterface
}

// NewAnalyticsRepository creates a new AnalyticsRepository with the given pool.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// NewAnalyticsRepositoryWithPool creates a new AnalyticsRepository with a custom pool interface.
// This is primarily used for testing.
func NewAnalyticsRepositoryWithPool(pool PoolInterface) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// Insert inserts a new analytics record. A nil CustomerID is stored as NULL.
func (r *AnalyticsRepository) Insert(ctx context.Context, rec *model.PromoAnalytics) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO promo_analytics (`+analyticsColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.PromoCodeID, rec.OrderID, rec.CustomerID, rec.DiscountAmount, rec.OriginalAmount,
		rec.FinalAmount, rec.IPAddress, rec.UserAgent, rec.CreatedAt, string(rec.ConversionStatus), rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert promo analytics: %w", err)
	}
	return nil
}

// UpdateStatus moves a record to status. Pending records may move to either terminal
// status; an abandoned record may still be completed by a later successful payment.
// A non-nil couponID restricts the update to records of that promo code. An empty
// orderID keeps the stored order reference.
// Returns service.ErrAnalyticsNotPending when the transition is not allowed and
// service.ErrAnalyticsNotFound for unknown ids or records of another promo code.
func (r *AnalyticsRepository) UpdateStatus(ctx context.Context, tx database.TxQuerier, id uuid.UUID, couponID *uuid.UUID, status model.ConversionStatus, completedAt *time.Time, orderID string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE promo_analytics
		 SET conversion_status = $2, completed_at = $3, order_id = COALESCE(NULLIF($4, ''), order_id)
		 WHERE id = $1
		   AND ($5::uuid IS NULL OR promo_code_id = $5)
		   AND (conversion_status = 'pending' OR ($2 = 'completed' AND conversion_status = 'abandoned'))`,
		id, string(status), completedAt, orderID, couponID)
	if err != nil {
		return fmt.Errorf("update analytics status for %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = tx.QueryRow(ctx,
		`SELECT conversion_status FROM promo_analytics
		 WHERE id = $1 AND ($2::uuid IS NULL OR promo_code_id = $2)`,
		id, couponID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrAnalyticsNotFound
		}
		return fmt.Errorf("get analytics status for %s: %w", id, err)
	}
	return service.ErrAnalyticsNotPending
}

// FindForPayment returns the record of a promo code already tied to paymentRef, or
// else its newest pending record. Returns nil, nil if there is neither.
func (r *AnalyticsRepository) FindForPayment(ctx context.Context, couponID uuid.UUID, paymentRef string) (*model.PromoAnalytics, error) {
	rec, err := scanAnalytics(r.pool.QueryRow(ctx,
		`SELECT `+analyticsColumns+` FROM promo_analytics
		 WHERE promo_code_id = $1
		   AND (conversion_status = 'pending' OR ($2 <> '' AND order_id = $2))
		 ORDER BY ($2 <> '' AND order_id = $2) DESC, created_at DESC
		 LIMIT 1`, couponID, paymentRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find analytics for %s: %w", couponID, err)
	}
	return rec, nil
}

// List returns analytics records created within rng, optionally restricted to one
// promo code, oldest first.
func (r *AnalyticsRepository) List(ctx context.Context, couponID *uuid.UUID, rng model.StatsRange) ([]model.PromoAnalytics, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+analyticsColumns+` FROM promo_analytics
		 WHERE ($1::uuid IS NULL OR promo_code_id = $1)
		   AND ($2::timestamptz IS NULL OR created_at >= $2)
		   AND ($3::timestamptz IS NULL OR created_at <= $3)
		 ORDER BY created_at`,
		couponID, rng.Start, rng.End)
	if err != nil {
		return nil, fmt.Errorf("list promo analytics: %w", err)
	}
	defer rows.Close()

	records := []model.PromoAnalytics{}
	for rows.Next() {
		rec, err := scanAnalytics(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promo analytics: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promo analytics rows: %w", err)
	}
	return records, nil
}

func scanAnalytics(row pgx.Row) (*model.PromoAnalytics, error) {
	var rec model.PromoAnalytics
	var status string
	err := row.Scan(
		&rec.ID,
		&rec.PromoCodeID,
		&rec.OrderID,
		&rec.CustomerID,
		&rec.DiscountAmount,
		&rec.OriginalAmount,
		&rec.FinalAmount,
		&rec.IPAddress,
		&rec.UserAgent,
		&rec.CreatedAt,
		&status,
		&rec.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.ConversionStatus = model.ConversionStatus(status)
	return &rec, nil
}
