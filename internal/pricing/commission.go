// Package pricing holds the pure money math: the tiered commission engine and
// the payment-method settlement calculator. All arithmetic is exact decimal;
// results feed directly into amounts owed.
package pricing

import (
	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

// commissionFloor is the minimum realized commission for small orders.
var commissionFloor = decimal.RequireFromString("1.50")

type tier struct {
	upper   decimal.Decimal // inclusive upper bound, USD
	rate    decimal.Decimal // percent
	floored bool
}

// Tiers are evaluated by ascending upper bound, first match wins.
var tiers = []tier{
	{upper: decimal.NewFromInt(10), rate: decimal.NewFromInt(15), floored: true},
	{upper: decimal.NewFromInt(20), rate: decimal.NewFromInt(12), floored: true},
	{upper: decimal.NewFromInt(35), rate: decimal.NewFromInt(10)},
	{upper: decimal.NewFromInt(50), rate: decimal.NewFromInt(8)},
	{upper: decimal.NewFromInt(75), rate: decimal.NewFromInt(6)},
	{upper: decimal.NewFromInt(250), rate: decimal.NewFromInt(5)},
}

// topRate applies above the highest tier bound.
var topRate = decimal.NewFromInt(3)

// Commission returns the commission rate (percent) and commission amount for
// a base amount in USD. The amount is rounded to 2 decimal places; for bases
// at or below $20 the result never falls under the $1.50 floor.
func Commission(base decimal.Decimal) (rate, amount decimal.Decimal, err error) {
	if base.Sign() <= 0 {
		return decimal.Decimal{}, decimal.Decimal{}, domain.ErrInvalidAmount
	}

	rate = topRate
	floored := false
	for _, t := range tiers {
		if base.LessThanOrEqual(t.upper) {
			rate = t.rate
			floored = t.floored
			break
		}
	}

	// base * rate / 100, exactly.
	amount = base.Mul(rate).Shift(-2).Round(2)
	if floored && amount.LessThan(commissionFloor) {
		amount = commissionFloor
	}
	return rate, amount, nil
}
