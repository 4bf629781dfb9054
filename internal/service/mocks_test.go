package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/pkg/database"
	"github.com/fairyhunter13/apparel-storefront/pkg/email"
)

// mockPromoRepository is a mock implementation of PromoCodeRepositoryInterface.
type mockPromoRepository struct {
	insertFn           func(ctx context.Context, promo *model.PromoCode) error
	getByCodeFn        func(ctx context.Context, code string) (*model.PromoCode, error)
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*model.PromoCode, error)
	listFn             func(ctx context.Context) ([]model.PromoCode, error)
	deleteFn           func(ctx context.Context, id uuid.UUID) error
	incrementUsageFn   func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
	recordRedemptionFn func(ctx context.Context, tx database.TxQuerier, paymentRef string, couponID uuid.UUID, analyticsID *uuid.UUID) (bool, error)

	getByCodeCalls      int
	incrementUsageCalls int
}

func (m *mockPromoRepository) Insert(ctx context.Context, promo *model.PromoCode) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, promo)
	}
	return nil
}

func (m *mockPromoRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	m.getByCodeCalls++
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockPromoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPromoRepository) List(ctx context.Context) ([]model.PromoCode, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.PromoCode{}, nil
}

func (m *mockPromoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPromoRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	m.incrementUsageCalls++
	if m.incrementUsageFn != nil {
		return m.incrementUsageFn(ctx, tx, id)
	}
	return nil
}

func (m *mockPromoRepository) RecordRedemption(ctx context.Context, tx database.TxQuerier, paymentRef string, couponID uuid.UUID, analyticsID *uuid.UUID) (bool, error) {
	if m.recordRedemptionFn != nil {
		return m.recordRedemptionFn(ctx, tx, paymentRef, couponID, analyticsID)
	}
	return true, nil
}

// mockAnalyticsRepository is a mock implementation of AnalyticsRepositoryInterface.
type mockAnalyticsRepository struct {
	insertFn         func(ctx context.Context, record *model.PromoAnalytics) error
	updateStatusFn   func(ctx context.Context, tx database.TxQuerier, id uuid.UUID, couponID *uuid.UUID, status model.ConversionStatus, completedAt *time.Time, orderID string) error
	findForPaymentFn func(ctx context.Context, couponID uuid.UUID, paymentRef string) (*model.PromoAnalytics, error)
	listFn           func(ctx context.Context, couponID *uuid.UUID, rng model.StatsRange) ([]model.PromoAnalytics, error)

	insertCalls       int
	updateStatusCalls int
}

func (m *mockAnalyticsRepository) Insert(ctx context.Context, record *model.PromoAnalytics) error {
	m.insertCalls++
	if m.insertFn != nil {
		return m.insertFn(ctx, record)
	}
	return nil
}

func (m *mockAnalyticsRepository) UpdateStatus(ctx context.Context, tx database.TxQuerier, id uuid.UUID, couponID *uuid.UUID, status model.ConversionStatus, completedAt *time.Time, orderID string) error {
	m.updateStatusCalls++
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, tx, id, couponID, status, completedAt, orderID)
	}
	return nil
}

func (m *mockAnalyticsRepository) FindForPayment(ctx context.Context, couponID uuid.UUID, paymentRef string) (*model.PromoAnalytics, error) {
	if m.findForPaymentFn != nil {
		return m.findForPaymentFn(ctx, couponID, paymentRef)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) List(ctx context.Context, couponID *uuid.UUID, rng model.StatsRange) ([]model.PromoAnalytics, error) {
	if m.listFn != nil {
		return m.listFn(ctx, couponID, rng)
	}
	return []model.PromoAnalytics{}, nil
}

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error

	committed bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

func beginnerFor(tx pgx.Tx) *mockTxBeginner {
	return &mockTxBeginner{beginFn: func(context.Context) (pgx.Tx, error) { return tx, nil }}
}

// mockLimiter is a mock implementation of RateLimiter.
type mockLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if m.allowFn != nil {
		return m.allowFn(ctx, key)
	}
	return true, nil
}

// mockMailer is a mock implementation of Mailer.
type mockMailer struct {
	sendFn func(ctx context.Context, msg email.Message) (string, error)
	sent   []email.Message
}

func (m *mockMailer) Send(ctx context.Context, msg email.Message) (string, error) {
	m.sent = append(m.sent, msg)
	if m.sendFn != nil {
		return m.sendFn(ctx, msg)
	}
	return "email_1", nil
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
