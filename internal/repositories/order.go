package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"disburse/internal/models"

	"gorm.io/gorm"
)

// PendingOrders is the aggregate of a merchant's unlinked orders in a range.
type PendingOrders struct {
	GrossCents int64
	OrderIDs   []uint
}

// PendingSummary counts every unlinked order of a merchant.
type PendingSummary struct {
	Count      int64     `json:"count"`
	GrossCents int64     `json:"gross_cents"`
	Oldest     time.Time `json:"oldest,omitempty"`
}

type OrderRepository interface {
	// OldestUnprocessedDate returns the creation time of the merchant's oldest
	// unlinked order; ok is false when there is none.
	OldestUnprocessedDate(ctx context.Context, merchantID uint) (oldest time.Time, ok bool, err error)
	// SumUnprocessed aggregates unlinked orders created within [from, to].
	SumUnprocessed(ctx context.Context, merchantID uint, from, to time.Time) (PendingOrders, error)
	Summary(ctx context.Context, merchantID uint) (PendingSummary, error)
	CreateBatch(ctx context.Context, orders []models.Order, size int) error
	ExecuteInTransaction(ctx context.Context, fn func(OrderRepository) error) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{
		db: db,
	}
}

func (r *orderRepository) pending(ctx context.Context, merchantID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("merchant_id = ? AND disbursement_id IS NULL", merchantID)
}

func (r *orderRepository) OldestUnprocessedDate(ctx context.Context, merchantID uint) (time.Time, bool, error) {
	var order models.Order
	err := r.pending(ctx, merchantID).
		Select("created_at").
		Order("created_at ASC").
		Take(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to find oldest pending order: %w", err)
	}
	return order.CreatedAt.UTC(), true, nil
}

func (r *orderRepository) SumUnprocessed(ctx context.Context, merchantID uint, from, to time.Time) (PendingOrders, error) {
	var rows []struct {
		ID     uint
		Amount int64
	}
	err := r.pending(ctx, merchantID).
		Select("id, amount").
		Where("created_at >= ? AND created_at <= ?", from.UTC(), to.UTC()).
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return PendingOrders{}, fmt.Errorf("failed to sum pending orders: %w", err)
	}

	agg := PendingOrders{OrderIDs: make([]uint, 0, len(rows))}
	for _, row := range rows {
		agg.GrossCents += row.Amount
		agg.OrderIDs = append(agg.OrderIDs, row.ID)
	}
	return agg, nil
}

func (r *orderRepository) Summary(ctx context.Context, merchantID uint) (PendingSummary, error) {
	var summary PendingSummary
	err := r.pending(ctx, merchantID).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS gross_cents").
		Scan(&summary).Error
	if err != nil {
		return PendingSummary{}, fmt.Errorf("failed to summarise pending orders: %w", err)
	}
	if summary.Count > 0 {
		oldest, _, err := r.OldestUnprocessedDate(ctx, merchantID)
		if err != nil {
			return PendingSummary{}, err
		}
		summary.Oldest = oldest
	}
	return summary, nil
}

func (r *orderRepository) CreateBatch(ctx context.Context, orders []models.Order, size int) error {
	if len(orders) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&orders, size).Error; err != nil {
		return fmt.Errorf("failed to insert orders: %w", err)
	}
	return nil
}

func (r *orderRepository) ExecuteInTransaction(ctx context.Context, fn func(OrderRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&orderRepository{db: tx})
	})
}
