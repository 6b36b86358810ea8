package models

import "time"

// Index names are referenced when classifying unique violations.
const (
	DisbursementMerchantDateIndex = "idx_disbursements_merchant_date"
	DisbursementReferenceIndex    = "idx_disbursements_reference"
)

// Disbursement is a payout to a merchant for one period. AmountCents is the
// net amount: the gross order total minus FeeCents.
type Disbursement struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	MerchantID      uint      `gorm:"not null;index;uniqueIndex:idx_disbursements_merchant_date,priority:1" json:"merchant_id"`
	Reference       string    `gorm:"not null;uniqueIndex:idx_disbursements_reference" json:"reference"`
	AmountCents     int64     `gorm:"not null;default:0" json:"amount_cents"`
	FeeCents        int64     `gorm:"not null;default:0" json:"fee_cents"`
	MonthlyFeeCents int64     `gorm:"not null;default:0" json:"monthly_fee_cents"`
	DisbursedOn     time.Time `gorm:"type:date;not null;uniqueIndex:idx_disbursements_merchant_date,priority:2" json:"disbursed_on"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Merchant *Merchant `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// GrossCents is the order total the disbursement was computed from.
func (d *Disbursement) GrossCents() int64 {
	return d.AmountCents + d.FeeCents
}
