package bankconfirmation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks where a bank confirmation record sits in its lifecycle
type Status string

const (
	// StatusUnconfirmed is a statement line not yet matched by the bank bot.
	StatusUnconfirmed Status = "UNCONFIRMED"
	// StatusConfirmed is a bot-confirmed record available for claiming.
	StatusConfirmed Status = "CONFIRMED"
	// StatusFrozen is a record withheld from claiming pending review.
	StatusFrozen Status = "FROZEN"
	// StatusConsumed is a record claimed by exactly one internal transfer.
	StatusConsumed Status = "CONSUMED"
)

// Record is externally produced evidence that money arrived at or left a
// bank account. A confirmed, unused record may be claimed by at most one
// settlement.
type Record struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	UTR       string          `json:"utr"`
	Amount    decimal.Decimal `json:"amount"`
	BankID    string          `json:"bank_id"`
	Status    Status          `json:"status"`
	IsUsed    bool            `json:"is_used"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
