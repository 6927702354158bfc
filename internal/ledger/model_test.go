package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMetricMapAccumulate(t *testing.T) {
	m := MetricMap{}

	// Absent key initializes at zero, then accumulates.
	m.Accumulate("total_cashSentSettlement_amount", decimal.NewFromInt(500))
	if !m["total_cashSentSettlement_amount"].Equal(decimal.NewFromInt(500)) {
		t.Errorf("after init: got %s, want 500", m["total_cashSentSettlement_amount"])
	}

	m.Accumulate("total_cashSentSettlement_amount", decimal.NewFromInt(250))
	if !m["total_cashSentSettlement_amount"].Equal(decimal.NewFromInt(750)) {
		t.Errorf("after add: got %s, want 750", m["total_cashSentSettlement_amount"])
	}

	// A reversal accumulates the negation back to the prior total.
	m.Accumulate("total_cashSentSettlement_amount", decimal.NewFromInt(-250))
	if !m["total_cashSentSettlement_amount"].Equal(decimal.NewFromInt(500)) {
		t.Errorf("after reversal: got %s, want 500", m["total_cashSentSettlement_amount"])
	}

	// Keys accumulate independently.
	m.Accumulate("total_internalSettlement_amount", decimal.NewFromInt(100))
	if !m["total_cashSentSettlement_amount"].Equal(decimal.NewFromInt(500)) {
		t.Error("unrelated key mutated by accumulate")
	}
	if !m["total_internalSettlement_amount"].Equal(decimal.NewFromInt(100)) {
		t.Errorf("second key: got %s, want 100", m["total_internalSettlement_amount"])
	}
}
