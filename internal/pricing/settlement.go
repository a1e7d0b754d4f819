package pricing

import (
	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

// Settlement currency codes.
const (
	CurrencyUSD  = "USD"
	CurrencyUSDT = "USDT"
	CurrencyRUB  = "RUB"
)

// lolzSurcharge is the extra 4% layered on top of the commissioned total.
var lolzSurcharge = decimal.RequireFromString("1.04")

// Settlement converts a commissioned total into the amount and currency the
// owner actually pays. CARD settles in whole RUB at the given rate; LOLZ adds
// a 4% surcharge in USD; the USDT routes pass the total through unchanged.
// Rounding is half away from zero and is applied exactly once per result.
func Settlement(total decimal.Decimal, method domain.PaymentMethod, usdToRub decimal.Decimal) (decimal.Decimal, string, error) {
	if total.Sign() <= 0 {
		return decimal.Decimal{}, "", domain.ErrInvalidAmount
	}
	if !method.Valid() {
		return decimal.Decimal{}, "", domain.ErrInvalidMethod
	}
	if usdToRub.Sign() <= 0 {
		return decimal.Decimal{}, "", domain.ErrInvalidRate
	}

	switch method {
	case domain.MethodCard:
		// Whole-unit rounding is terminal for CARD; no 2dp re-round.
		return total.Mul(usdToRub).Round(0), CurrencyRUB, nil
	case domain.MethodLolz:
		return total.Mul(lolzSurcharge).Round(2), CurrencyUSD, nil
	default: // USDT_TRC20, USDT_BEP20, BYBIT_UID
		return total.Round(2), CurrencyUSDT, nil
	}
}
