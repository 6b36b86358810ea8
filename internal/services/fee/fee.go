// Package fee prices disbursements: a tiered transaction fee on each period's
// gross amount and a top-up that brings a merchant's monthly fees up to its
// agreed minimum.
package fee

import "github.com/shopspring/decimal"

// Tier applies Rate to gross amounts from MinCents (inclusive) up to the next
// tier's MinCents (exclusive).
type Tier struct {
	MinCents int64
	Rate     decimal.Decimal
}

// Tiers is ordered by MinCents ascending.
var Tiers = []Tier{
	{MinCents: 0, Rate: decimal.RequireFromString("0.01")},
	{MinCents: 5000, Rate: decimal.RequireFromString("0.0095")},
	{MinCents: 30000, Rate: decimal.RequireFromString("0.0085")},
}

// RateFor returns the rate of the tier containing grossCents.
func RateFor(grossCents int64) decimal.Decimal {
	rate := Tiers[0].Rate
	for _, t := range Tiers {
		if grossCents >= t.MinCents {
			rate = t.Rate
		}
	}
	return rate
}

// TransactionFee returns ceil(grossCents × rate) in cents. The fee for a non
// positive gross amount is 0.
//
// The fee can drop just above a tier boundary (29999 -> 285, 30000 -> 255).
func TransactionFee(grossCents int64) int64 {
	if grossCents <= 0 {
		return 0
	}
	return decimal.NewFromInt(grossCents).Mul(RateFor(grossCents)).Ceil().IntPart()
}
