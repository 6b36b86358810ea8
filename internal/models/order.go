package models

import "time"

// Order is a merchant sale. DisbursementID is set exactly once, when a
// disbursement consumes the order, and never cleared afterwards.
type Order struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	MerchantID     uint      `gorm:"not null;index;index:idx_orders_pending,priority:1" json:"merchant_id"`
	Amount         int64     `gorm:"not null" json:"amount"`
	DisbursementID *uint     `gorm:"index;index:idx_orders_pending,priority:2" json:"disbursement_id,omitempty"`
	CreatedAt      time.Time `gorm:"index:idx_orders_pending,priority:3" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Merchant     *Merchant     `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Disbursement *Disbursement `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// IsDisbursed reports whether the order has been consumed by a disbursement.
func (o *Order) IsDisbursed() bool {
	return o.DisbursementID != nil
}
