package disbursement

import (
	"context"
	"time"

	"disburse/internal/repositories"
	"disburse/internal/services/period"
)

// Aggregator reads the orders a period still has to settle.
type Aggregator struct {
	orders OrderStore
}

func NewAggregator(orders OrderStore) *Aggregator {
	if orders == nil {
		panic("order store is required")
	}
	return &Aggregator{orders: orders}
}

// OldestUnprocessedDate seeds the period sequence of a merchant. ok is false
// when the merchant has nothing left to disburse.
func (a *Aggregator) OldestUnprocessedDate(ctx context.Context, merchantID uint) (time.Time, bool, error) {
	return a.orders.OldestUnprocessedDate(ctx, merchantID)
}

// Unprocessed returns the unlinked orders created within p and their total.
func (a *Aggregator) Unprocessed(ctx context.Context, merchantID uint, p period.Period) (repositories.PendingOrders, error) {
	return a.orders.SumUnprocessed(ctx, merchantID, p.Start, p.End)
}
