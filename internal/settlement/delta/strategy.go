package delta

import (
	"github.com/shopspring/decimal"
)

// Role selects which bookkeeping rules apply to a settlement owner.
type Role string

const (
	RoleMerchant Role = "MERCHANT"
	RoleVendor   Role = "VENDOR"
)

// Delta is an additive patch against a Calculation ledger row. Fields are
// added to the stored values, never assigned over them.
type Delta struct {
	Count      int64
	Amount     decimal.Decimal
	Commission decimal.Decimal
	Balance    decimal.Decimal
	Net        decimal.Decimal
}

// Negate returns the reversal of d: every monetary field is negated while
// Count stays at +1, because a reversal is itself a counted ledger event. The
// sum of an approval delta and its negation is zero on every monetary field.
func (d Delta) Negate() Delta {
	return Delta{
		Count:      d.Count,
		Amount:     d.Amount.Neg(),
		Commission: d.Commission.Neg(),
		Balance:    d.Balance.Neg(),
		Net:        d.Net.Neg(),
	}
}

// Strategy computes the ledger delta applied when a settlement is approved.
// The reversal delta is always Approval(...).Negate().
type Strategy interface {
	// Approval computes the delta for a settlement reaching SUCCESS.
	Approval(amount decimal.Decimal) Delta
}

// Factory selects the delta strategy for a settlement owner and method
type Factory struct{}

// NewFactory creates a new strategy factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy matching the owner role and transfer kind.
// rate is only consulted for vendor internal transfers.
func (f *Factory) Create(role Role, internalTransfer bool, rate decimal.Decimal) Strategy {
	if role == RoleVendor {
		if internalTransfer {
			return &VendorInternalStrategy{Rate: rate}
		}
		return &VendorStrategy{}
	}
	return &MerchantStrategy{}
}
