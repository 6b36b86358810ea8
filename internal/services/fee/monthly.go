package fee

import (
	"context"
	"fmt"
	"time"

	"disburse/internal/models"
	"disburse/internal/services/period"
)

// Store is the read side of recorded disbursements the monthly fee needs.
type Store interface {
	// SumFeesBetween sums transaction fees of disbursements dated in [from, to].
	SumFeesBetween(ctx context.Context, merchantID uint, from, to time.Time) (int64, error)
	// MonthlyFeeChargedBetween reports whether a disbursement dated in
	// [from, to] already carries a monthly fee top-up.
	MonthlyFeeChargedBetween(ctx context.Context, merchantID uint, from, to time.Time) (bool, error)
}

// Eligible reports whether a period starting on periodStart is the one that
// settles the previous month's minimum fee. DAILY merchants settle on the 1st,
// WEEKLY merchants in the period that starts within days 1 to 7.
func Eligible(freq period.Frequency, periodStart time.Time) bool {
	d := periodStart.UTC().Day()
	switch freq {
	case period.Daily:
		return d == 1
	case period.Weekly:
		return d <= 7
	default:
		return false
	}
}

// Calculator computes monthly fee top-ups from recorded disbursements.
type Calculator struct {
	store Store
}

func NewCalculator(store Store) *Calculator {
	if store == nil {
		panic("fee store is required")
	}
	return &Calculator{store: store}
}

// MonthlyFeeDue returns how much the merchant's previous-month transaction
// fees fell short of its minimum monthly fee, or 0 when periodStart is not
// eligible.
//
// Unlike a plain max(minimum - collected, 0), the top-up is charged at most
// once per calendar month: when a disbursement dated in periodStart's month
// already carries one, the result is 0. This only differs when a WEEKLY chain
// restarts inside days 1 to 7 and would otherwise settle the same shortfall
// twice.
func (c *Calculator) MonthlyFeeDue(ctx context.Context, m *models.Merchant, freq period.Frequency, periodStart time.Time) (int64, error) {
	if !Eligible(freq, periodStart) || m.MinimumMonthlyFeeCents <= 0 {
		return 0, nil
	}

	monthStart, monthEnd := period.MonthRange(periodStart)
	charged, err := c.store.MonthlyFeeChargedBetween(ctx, m.ID, monthStart, monthEnd)
	if err != nil {
		return 0, fmt.Errorf("check monthly fee already charged: %w", err)
	}
	if charged {
		return 0, nil
	}

	from, to := period.PreviousMonthRange(periodStart)
	collected, err := c.store.SumFeesBetween(ctx, m.ID, from, to)
	if err != nil {
		return 0, fmt.Errorf("sum previous month fees: %w", err)
	}

	return max(m.MinimumMonthlyFeeCents-collected, 0), nil
}
