package repositories

import (
	"context"
	"fmt"
	"time"

	"disburse/internal/models"

	"gorm.io/gorm"
)

// linkChunkSize bounds the number of ids in one UPDATE ... WHERE id IN (...).
const linkChunkSize = 1000

type DisbursementRepository interface {
	// CreateAndLinkOrders inserts d and points every order in orderIDs at it
	// in one transaction. Only unlinked orders are touched; if any of them was
	// linked meanwhile nothing is written and ErrOrdersAlreadyLinked is
	// returned. A second disbursement for the same merchant and date fails
	// with ErrDuplicatePeriod, a reference clash with ErrDuplicateReference.
	CreateAndLinkOrders(ctx context.Context, d *models.Disbursement, orderIDs []uint) error
	ExistsForDate(ctx context.Context, merchantID uint, disbursedOn time.Time) (bool, error)
	SumFeesBetween(ctx context.Context, merchantID uint, from, to time.Time) (int64, error)
	MonthlyFeeChargedBetween(ctx context.Context, merchantID uint, from, to time.Time) (bool, error)
	ListByMerchant(ctx context.Context, merchantID uint, limit, offset int) ([]models.Disbursement, int64, error)
	CountLinkedOrders(ctx context.Context, disbursementID uint) (int64, error)
}

type disbursementRepository struct {
	db *gorm.DB
}

func NewDisbursementRepository(db *gorm.DB) DisbursementRepository {
	return &disbursementRepository{
		db: db,
	}
}

func (r *disbursementRepository) CreateAndLinkOrders(ctx context.Context, d *models.Disbursement, orderIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return err
		}

		var linked int64
		for start := 0; start < len(orderIDs); start += linkChunkSize {
			chunk := orderIDs[start:min(start+linkChunkSize, len(orderIDs))]
			result := tx.Model(&models.Order{}).
				Where("id IN ? AND disbursement_id IS NULL", chunk).
				Update("disbursement_id", d.ID)
			if result.Error != nil {
				return fmt.Errorf("failed to link orders: %w", result.Error)
			}
			linked += result.RowsAffected
		}

		if linked != int64(len(orderIDs)) {
			return fmt.Errorf("%w: linked %d of %d", ErrOrdersAlreadyLinked, linked, len(orderIDs))
		}
		return nil
	})
	if err == nil {
		return nil
	}

	d.ID = 0
	return r.classify(ctx, err, d)
}

// classify maps unique violations on the disbursements table to
// ErrDuplicatePeriod or ErrDuplicateReference. Dialects that do not report
// the constraint name are resolved by looking for the committed period.
func (r *disbursementRepository) classify(ctx context.Context, err error, d *models.Disbursement) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}

	switch constraint {
	case models.DisbursementMerchantDateIndex:
		return fmt.Errorf("%w: merchant %d on %s", ErrDuplicatePeriod, d.MerchantID, d.DisbursedOn.Format(time.DateOnly))
	case models.DisbursementReferenceIndex:
		return fmt.Errorf("%w: %s", ErrDuplicateReference, d.Reference)
	}

	exists, qErr := r.ExistsForDate(ctx, d.MerchantID, d.DisbursedOn)
	if qErr != nil {
		return fmt.Errorf("unique violation %v, classification failed: %w", err, qErr)
	}
	if exists {
		return fmt.Errorf("%w: merchant %d on %s", ErrDuplicatePeriod, d.MerchantID, d.DisbursedOn.Format(time.DateOnly))
	}
	return fmt.Errorf("%w: %s", ErrDuplicateReference, d.Reference)
}

func (r *disbursementRepository) ExistsForDate(ctx context.Context, merchantID uint, disbursedOn time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Disbursement{}).
		Where("merchant_id = ? AND disbursed_on = ?", merchantID, disbursedOn.UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check disbursement: %w", err)
	}
	return count > 0, nil
}

func (r *disbursementRepository) between(ctx context.Context, merchantID uint, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Disbursement{}).
		Where("merchant_id = ? AND disbursed_on >= ? AND disbursed_on <= ?", merchantID, from.UTC(), to.UTC())
}

func (r *disbursementRepository) SumFeesBetween(ctx context.Context, merchantID uint, from, to time.Time) (int64, error) {
	var total int64
	if err := r.between(ctx, merchantID, from, to).Select("COALESCE(SUM(fee_cents), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum fees: %w", err)
	}
	return total, nil
}

func (r *disbursementRepository) MonthlyFeeChargedBetween(ctx context.Context, merchantID uint, from, to time.Time) (bool, error) {
	var count int64
	if err := r.between(ctx, merchantID, from, to).Where("monthly_fee_cents > 0").Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check monthly fee: %w", err)
	}
	return count > 0, nil
}

func (r *disbursementRepository) ListByMerchant(ctx context.Context, merchantID uint, limit, offset int) ([]models.Disbursement, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).
		Model(&models.Disbursement{}).
		Where("merchant_id = ?", merchantID).
		Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count disbursements: %w", err)
	}

	var disbursements []models.Disbursement
	err := query.Order("disbursed_on DESC, id DESC").Limit(limit).Offset(offset).Find(&disbursements).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list disbursements: %w", err)
	}
	return disbursements, total, nil
}

func (r *disbursementRepository) CountLinkedOrders(ctx context.Context, disbursementID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("disbursement_id = ?", disbursementID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count linked orders: %w", err)
	}
	return count, nil
}
