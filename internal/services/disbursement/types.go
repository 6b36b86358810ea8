package disbursement

import (
	"time"

	"disburse/internal/models"

	"github.com/rs/zerolog"
)

// Entry is everything the recorder needs to write one disbursement.
type Entry struct {
	MerchantID      uint
	OrderIDs        []uint
	GrossCents      int64
	FeeCents        int64
	MonthlyFeeCents int64
	DisbursedOn     time.Time
	// Reference is generated when empty. A preset reference is used as is
	// and never replaced.
	Reference string
}

// MerchantResult is the outcome of one merchant's period chain.
type MerchantResult struct {
	MerchantID       uint
	Reference        string
	Skipped          bool
	Disbursements    []*models.Disbursement
	DuplicatePeriods int
	OrdersLinked     int
	Err              error
}

// Options tunes a Service. Zero values fall back to the package defaults.
type Options struct {
	Workers              int
	ReferenceMaxAttempts int
	MerchantBatchSize    int
	Now                  func() time.Time
	Logger               zerolog.Logger
	References           ReferenceSource
	Fees                 FeeCalculator
}
