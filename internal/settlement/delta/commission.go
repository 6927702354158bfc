package delta

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Commission computes the commission for a settled amount at a percentage
// rate, rounded to the currency's smallest unit (two decimal places). The
// sign of amount is ignored; commissions always accrue positively.
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Abs().Mul(rate).Div(hundred).Round(2)
}
