package models

import "time"

// MerchantFailure records why a merchant's period chain stopped during a run.
type MerchantFailure struct {
	MerchantID uint   `json:"merchant_id"`
	Reference  string `json:"reference"`
	Error      string `json:"error"`
}

// RunReport summarises one disbursement run. It is logged and cached for the
// ops API; it is not persisted in the relational store.
type RunReport struct {
	ID                   string            `json:"id"`
	StartedAt            time.Time         `json:"started_at"`
	FinishedAt           time.Time         `json:"finished_at"`
	MerchantsSeen        int               `json:"merchants_seen"`
	MerchantsSkipped     int               `json:"merchants_skipped"`
	MerchantsFailed      int               `json:"merchants_failed"`
	DisbursementsCreated int               `json:"disbursements_created"`
	DuplicatePeriods     int               `json:"duplicate_periods"`
	OrdersLinked         int               `json:"orders_linked"`
	GrossCents           int64             `json:"gross_cents"`
	FeeCents             int64             `json:"fee_cents"`
	MonthlyFeeCents      int64             `json:"monthly_fee_cents"`
	Failures             []MerchantFailure `json:"failures,omitempty"`
}

// Duration is the wall time the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
