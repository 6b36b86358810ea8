package disbursement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"disburse/internal/models"
	"disburse/internal/repositories"

	"github.com/rs/zerolog"
)

// Recorder writes a disbursement and links its orders as one unit.
type Recorder struct {
	store       DisbursementStore
	refs        ReferenceSource
	maxAttempts int
	log         zerolog.Logger
}

func NewRecorder(store DisbursementStore, refs ReferenceSource, maxAttempts int, log zerolog.Logger) *Recorder {
	if store == nil {
		panic("disbursement store is required")
	}
	if refs == nil {
		panic("reference source is required")
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Recorder{
		store:       store,
		refs:        refs,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Record inserts the disbursement described by e and links e.OrderIDs to it.
// A reference clash is retried with a fresh reference up to the configured
// number of attempts. ErrDuplicatePeriod is returned untouched so callers can
// skip the period.
func (r *Recorder) Record(ctx context.Context, e Entry) (*models.Disbursement, error) {
	attempts := r.maxAttempts
	if e.Reference != "" {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		d := &models.Disbursement{
			MerchantID:      e.MerchantID,
			Reference:       e.Reference,
			AmountCents:     e.GrossCents - e.FeeCents,
			FeeCents:        e.FeeCents,
			MonthlyFeeCents: e.MonthlyFeeCents,
			DisbursedOn:     e.DisbursedOn.UTC(),
		}
		if d.Reference == "" {
			ref, err := r.refs.Generate(e.MerchantID, e.DisbursedOn)
			if err != nil {
				return nil, err
			}
			d.Reference = ref
		}

		err := r.store.CreateAndLinkOrders(ctx, d, e.OrderIDs)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateReference) {
			return nil, err
		}

		r.log.Debug().
			Uint("merchant_id", e.MerchantID).
			Str("reference", d.Reference).
			Int("attempt", attempt).
			Msg("disbursement reference taken, retrying")
	}

	return nil, fmt.Errorf("%w: merchant %d on %s after %d attempts",
		ErrReferenceExhausted, e.MerchantID, e.DisbursedOn.Format(time.DateOnly), attempts)
}
