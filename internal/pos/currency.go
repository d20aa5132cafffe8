package pos

import "github.com/shopspring/decimal"

// ToLocal converts a base-currency amount into local currency.
// Local figures are always derived from base amounts, never stored as the source of truth.
func ToLocal(amountBase, rate decimal.Decimal) decimal.Decimal {
	return Round2(amountBase.Mul(rate))
}

// ToBase converts an amount entered in local currency back to base currency.
func ToBase(amountLocal, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsZero() {
		return decimal.Zero, invalid(ErrZeroExchangeRate, "exchange_rate",
			"no exchange rate is configured; local currency payments cannot be accepted")
	}
	return Round2(amountLocal.Div(rate)), nil
}
