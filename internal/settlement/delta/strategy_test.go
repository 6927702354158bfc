package delta

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCommission(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"whole percent", "1000", "2", "20"},
		{"fractional rate", "1000", "2.5", "25"},
		{"rounds to smallest unit", "1234.56", "2.5", "30.86"},
		{"negative amount uses magnitude", "-1000", "2", "20"},
		{"zero rate", "1000", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Commission(dec(tt.amount), dec(tt.rate))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Commission(%s, %s) = %s, want %s", tt.amount, tt.rate, got.String(), tt.want)
			}
		})
	}
}

func TestMerchantApproval(t *testing.T) {
	d := (&MerchantStrategy{}).Approval(dec("500"))

	if d.Count != 1 {
		t.Errorf("count = %d, want 1", d.Count)
	}
	if !d.Amount.Equal(dec("500")) {
		t.Errorf("amount = %s, want 500", d.Amount)
	}
	if !d.Balance.Equal(dec("-500")) {
		t.Errorf("balance = %s, want -500", d.Balance)
	}
	if !d.Net.Equal(dec("-500")) {
		t.Errorf("net = %s, want -500", d.Net)
	}
	if !d.Commission.IsZero() {
		t.Errorf("commission = %s, want 0", d.Commission)
	}
}

func TestVendorInternalApproval(t *testing.T) {
	d := (&VendorInternalStrategy{Rate: dec("2")}).Approval(dec("1000"))

	if !d.Commission.Equal(dec("20")) {
		t.Errorf("commission = %s, want 20", d.Commission)
	}
	if !d.Amount.Equal(dec("-1000")) {
		t.Errorf("amount = %s, want -1000", d.Amount)
	}
	if !d.Balance.Equal(dec("-980")) {
		t.Errorf("balance = %s, want -980", d.Balance)
	}
	if !d.Net.Equal(dec("-980")) {
		t.Errorf("net = %s, want -980", d.Net)
	}
}

// An approval delta and its negation must cancel exactly on every monetary
// field while both still count as ledger events.
func TestNegateCancelsApproval(t *testing.T) {
	factory := NewFactory()

	strategies := []struct {
		name string
		s    Strategy
	}{
		{"merchant", factory.Create(RoleMerchant, false, decimal.Zero)},
		{"vendor", factory.Create(RoleVendor, false, decimal.Zero)},
		{"vendor internal", factory.Create(RoleVendor, true, dec("2.5"))},
	}

	for _, tt := range strategies {
		t.Run(tt.name, func(t *testing.T) {
			approval := tt.s.Approval(dec("1234.56"))
			reversal := approval.Negate()

			if reversal.Count != 1 {
				t.Errorf("reversal count = %d, want 1", reversal.Count)
			}
			if !approval.Amount.Add(reversal.Amount).IsZero() {
				t.Errorf("amount does not cancel: %s + %s", approval.Amount, reversal.Amount)
			}
			if !approval.Commission.Add(reversal.Commission).IsZero() {
				t.Errorf("commission does not cancel: %s + %s", approval.Commission, reversal.Commission)
			}
			if !approval.Balance.Add(reversal.Balance).IsZero() {
				t.Errorf("balance does not cancel: %s + %s", approval.Balance, reversal.Balance)
			}
			if !approval.Net.Add(reversal.Net).IsZero() {
				t.Errorf("net does not cancel: %s + %s", approval.Net, reversal.Net)
			}
		})
	}
}

func TestFactorySelectsByRole(t *testing.T) {
	factory := NewFactory()

	if _, ok := factory.Create(RoleMerchant, true, decimal.Zero).(*MerchantStrategy); !ok {
		t.Error("merchant internal transfer should use the merchant strategy")
	}
	if _, ok := factory.Create(RoleVendor, false, decimal.Zero).(*VendorStrategy); !ok {
		t.Error("vendor non-internal should use the vendor strategy")
	}
	if _, ok := factory.Create(RoleVendor, true, dec("2")).(*VendorInternalStrategy); !ok {
		t.Error("vendor internal should use the vendor internal strategy")
	}
}
