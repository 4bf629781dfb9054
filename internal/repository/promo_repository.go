package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/internal/service"
	"github.com/fairyhunter13/apparel-storefront/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const uniqueViolation = "23505"

const promoColumns = `id, code, discount_type, value, min_purchase, max_discount, expires_at,
	usage_limit, usage_count, active, customer_id, created_at`

// PromoCodeRepository provides data access for promo codes using pgx.
type PromoCodeRepository struct {
	pool PoolInterface
}

// NewPromoCodeRepository creates a new PromoCodeRepository with the given pool.
func NewPromoCodeRepository(pool *pgxpool.Pool) *PromoCodeRepository {
	return &PromoCodeRepository{pool: pool}
}

// NewPromoCodeRepositoryWithPool creates a new PromoCodeRepository with a custom pool interface.
// This is primarily used for testing.
func NewPromoCodeRepositoryWithPool(pool PoolInterface) *PromoCodeRepository {
	return &PromoCodeRepository{pool: pool}
}

// Insert inserts a new promo code.
// Returns service.ErrPromoCodeExists if the code is taken (case-insensitive unique index).
func (r *PromoCodeRepository) Insert(ctx context.Context, promo *model.PromoCode) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO promo_codes (`+promoColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		promo.ID, promo.Code, string(promo.DiscountType), promo.Value, promo.MinPurchase, promo.MaxDiscount,
		promo.ExpiresAt, promo.UsageLimit, promo.UsageCount, promo.Active, promo.CustomerID, promo.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrPromoCodeExists
		}
		return fmt.Errorf("insert promo code: %w", err)
	}
	return nil
}

// GetByCode retrieves a promo code by case-insensitive code match.
// Returns nil, nil if the code is not found (service layer handles this).
func (r *PromoCodeRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	promo, err := scanPromo(r.pool.QueryRow(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE lower(code) = lower($1)`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get promo code %s: %w", code, err)
	}
	return promo, nil
}

// GetByID retrieves a promo code by id.
// Returns nil, nil if the promo code is not found.
func (r *PromoCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error) {
	promo, err := scanPromo(r.pool.QueryRow(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get promo code %s: %w", id, err)
	}
	return promo, nil
}

// List returns all promo codes, newest first.
// On success, returns an empty slice (not nil) when there are none.
func (r *PromoCodeRepository) List(ctx context.Context) ([]model.PromoCode, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+promoColumns+` FROM promo_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()

	promos := []model.PromoCode{}
	for rows.Next() {
		promo, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promo code: %w", err)
		}
		promos = append(promos, *promo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promo code rows: %w", err)
	}
	return promos, nil
}

// Delete removes a promo code and, through the foreign key, its analytics.
// Returns service.ErrPromoCodeNotFound if nothing was deleted.
func (r *PromoCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promo_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete promo code %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrPromoCodeNotFound
	}
	return nil
}

// IncrementUsage adds one to usage_count in a single UPDATE, so concurrent callers
// never lose an increment.
// Returns service.ErrPromoCodeNotFound if the promo code doesn't exist.
func (r *PromoCodeRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE promo_codes SET usage_count = usage_count + 1, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment usage for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrPromoCodeNotFound
	}
	return nil
}

// RecordRedemption claims paymentRef for couponID. It reports false when the payment
// was already recorded, so the caller can skip counting it again.
func (r *PromoCodeRepository) RecordRedemption(ctx context.Context, tx database.TxQuerier, paymentRef string, couponID uuid.UUID, analyticsID *uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO promo_redemptions (payment_ref, promo_code_id, analytics_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (payment_ref) DO NOTHING`,
		paymentRef, couponID, analyticsID)
	if err != nil {
		return false, fmt.Errorf("record redemption %s: %w", paymentRef, err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanPromo(row pgx.Row) (*model.PromoCode, error) {
	var promo model.PromoCode
	var discountType string
	err := row.Scan(
		&promo.ID,
		&promo.Code,
		&discountType,
		&promo.Value,
		&promo.MinPurchase,
		&promo.MaxDiscount,
		&promo.ExpiresAt,
		&promo.UsageLimit,
		&promo.UsageCount,
		&promo.Active,
		&promo.CustomerID,
		&promo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	promo.DiscountType = model.DiscountType(discountType)
	return &promo, nil
}
