package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MetricMap holds the method-and-direction-keyed cumulative totals stored in
// the Calculation config column (e.g. "total_cashSentSettlement_amount").
// Every key is independently initialize-or-accumulate; keys are never reset.
type MetricMap map[string]decimal.Decimal

// Accumulate adds amount to the metric under key, initializing the key at
// zero if it is absent. This is the only mutation MetricMap supports.
func (m MetricMap) Accumulate(key string, amount decimal.Decimal) {
	m[key] = m[key].Add(amount)
}

// Value implements driver.Valuer, storing the map as JSONB.
func (m MetricMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *MetricMap) Scan(src any) error {
	if src == nil {
		*m = MetricMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into MetricMap", src)
	}
	return json.Unmarshal(b, m)
}

// Calculation is the per-user running ledger: one row per (user, company),
// mutated only by additive deltas.
type Calculation struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`

	TotalSettlementCount      int64           `json:"total_settlement_count"`
	TotalSettlementAmount     decimal.Decimal `json:"total_settlement_amount"`
	TotalSettlementCommission decimal.Decimal `json:"total_settlement_commission"`

	CurrentBalance decimal.Decimal `json:"current_balance"`
	NetBalance     decimal.Decimal `json:"net_balance"`

	Config    MetricMap `json:"config"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
