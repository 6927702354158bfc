package delta

import "github.com/shopspring/decimal"

// =============================================================================
// MERCHANT STRATEGY
// A merchant settlement moves money out of the company float: the settled
// amount accrues on the totals while both balances drop by the same amount.
// =============================================================================

// MerchantStrategy implements Strategy for merchant-owned settlements
type MerchantStrategy struct{}

// Approval computes the merchant approval delta
func (s *MerchantStrategy) Approval(amount decimal.Decimal) Delta {
	return Delta{
		Count:   1,
		Amount:  amount,
		Balance: amount.Neg(),
		Net:     amount.Neg(),
	}
}
