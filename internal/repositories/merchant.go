package repositories

import (
	"context"
	"errors"
	"fmt"

	"disburse/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MerchantRepository interface {
	// FindInBatches streams every merchant in primary key order. The slice
	// passed to fn is reused between calls.
	FindInBatches(ctx context.Context, size int, fn func([]models.Merchant) error) error
	GetByReference(ctx context.Context, reference string) (*models.Merchant, error)
	IDsByReference(ctx context.Context) (map[string]uint, error)
	// CreateBatch inserts merchants, ignoring references that already exist,
	// and returns the number of rows inserted.
	CreateBatch(ctx context.Context, merchants []models.Merchant) (int64, error)
}

type merchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{
		db: db,
	}
}

func (r *merchantRepository) FindInBatches(ctx context.Context, size int, fn func([]models.Merchant) error) error {
	var batch []models.Merchant
	result := r.db.WithContext(ctx).FindInBatches(&batch, size, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	})
	if result.Error != nil {
		return fmt.Errorf("failed to find merchants: %w", result.Error)
	}
	return nil
}

func (r *merchantRepository) GetByReference(ctx context.Context, reference string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return &merchant, nil
}

func (r *merchantRepository) IDsByReference(ctx context.Context) (map[string]uint, error) {
	var rows []struct {
		ID        uint
		Reference string
	}
	if err := r.db.WithContext(ctx).Model(&models.Merchant{}).Select("id, reference").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load merchant references: %w", err)
	}

	ids := make(map[string]uint, len(rows))
	for _, row := range rows {
		ids[row.Reference] = row.ID
	}
	return ids, nil
}

func (r *merchantRepository) CreateBatch(ctx context.Context, merchants []models.Merchant) (int64, error) {
	if len(merchants) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&merchants)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert merchants: %w", result.Error)
	}
	return result.RowsAffected, nil
}
