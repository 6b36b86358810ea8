package disbursement

import (
	"context"
	"time"

	"disburse/internal/models"
	"disburse/internal/repositories"
	"disburse/internal/services/fee"
	"disburse/internal/services/period"
)

// MerchantStore enumerates merchants for a run.
type MerchantStore interface {
	FindInBatches(ctx context.Context, size int, fn func([]models.Merchant) error) error
}

// OrderStore reads unlinked orders.
type OrderStore interface {
	OldestUnprocessedDate(ctx context.Context, merchantID uint) (time.Time, bool, error)
	SumUnprocessed(ctx context.Context, merchantID uint, from, to time.Time) (repositories.PendingOrders, error)
}

// DisbursementStore writes disbursements and answers the monthly fee queries.
type DisbursementStore interface {
	fee.Store
	CreateAndLinkOrders(ctx context.Context, d *models.Disbursement, orderIDs []uint) error
}

// FeeCalculator computes the monthly minimum fee top-up for a period.
type FeeCalculator interface {
	MonthlyFeeDue(ctx context.Context, m *models.Merchant, freq period.Frequency, periodStart time.Time) (int64, error)
}

// ReferenceSource produces reference candidates for new disbursements.
type ReferenceSource interface {
	Generate(merchantID uint, disbursedOn time.Time) (string, error)
}
