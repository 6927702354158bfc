package delta

import "github.com/shopspring/decimal"

// =============================================================================
// VENDOR STRATEGIES
// Vendor settlements come in two shapes: manually approved transfers, where
// the amount accrues positively, and internal transfers reconciled against a
// bank confirmation, where the vendor's commission offsets the amount moved.
// =============================================================================

// VendorStrategy implements Strategy for vendor settlements on non-internal
// methods (CASH, BANK, CRYPTO, AED).
type VendorStrategy struct{}

// Approval computes the vendor approval delta
func (s *VendorStrategy) Approval(amount decimal.Decimal) Delta {
	return Delta{
		Count:   1,
		Amount:  amount,
		Balance: amount,
		Net:     amount,
	}
}

// VendorInternalStrategy implements Strategy for vendor internal transfers.
// The commission is the vendor's payin rate applied to the settled amount.
type VendorInternalStrategy struct {
	Rate decimal.Decimal
}

// Approval computes the vendor internal-transfer approval delta
func (s *VendorInternalStrategy) Approval(amount decimal.Decimal) Delta {
	commission := Commission(amount, s.Rate)
	return Delta{
		Count:      1,
		Amount:     amount.Neg(),
		Commission: commission,
		Balance:    amount.Neg().Add(commission),
		Net:        amount.Neg().Add(commission),
	}
}

// InternalCreation computes the delta applied when an internal transfer is
// auto-approved at creation time. It matches the vendor internal approval
// shape except that the net balance is untouched until an operator approves.
func InternalCreation(amount, rate decimal.Decimal) Delta {
	commission := Commission(amount, rate)
	return Delta{
		Count:      1,
		Amount:     amount.Neg(),
		Commission: commission,
		Balance:    amount.Neg().Add(commission),
	}
}
