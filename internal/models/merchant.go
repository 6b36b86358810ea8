package models

import (
	"time"
)

// Disbursement frequencies accepted by the period generator.
const (
	FrequencyDaily  = "DAILY"
	FrequencyWeekly = "WEEKLY"
)

// DefaultCurrency is applied to merchants imported without a currency.
const DefaultCurrency = "EUR"

// Merchant is imported from master data and is read-only to the disbursement run.
type Merchant struct {
	ID                     uint      `gorm:"primarykey" json:"id"`
	Reference              string    `gorm:"uniqueIndex;not null" json:"reference"`
	Email                  string    `gorm:"uniqueIndex;not null" json:"email"`
	LiveOn                 time.Time `gorm:"type:date" json:"live_on"`
	DisbursementFrequency  string    `gorm:"not null" json:"disbursement_frequency"`
	MinimumMonthlyFeeCents int64     `gorm:"not null;default:0" json:"minimum_monthly_fee_cents"`
	Currency               string    `gorm:"not null;default:'EUR'" json:"currency"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}
