package settlement

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Method is how the money moves
type Method string

const (
	MethodCash               Method = "CASH"
	MethodBank               Method = "BANK"
	MethodCrypto             Method = "CRYPTO"
	MethodAED                Method = "AED"
	MethodInternalQRTransfer Method = "INTERNAL_QR_TRANSFER"
	MethodInternalBank       Method = "INTERNAL_BANK_TRANSFER"
)

// IsInternal reports whether the method reconciles against a bank
// confirmation record instead of being manually approved.
func (m Method) IsInternal() bool {
	return m == MethodInternalQRTransfer || m == MethodInternalBank
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodBank, MethodCrypto, MethodAED, MethodInternalQRTransfer, MethodInternalBank:
		return true
	}
	return false
}

// DebitCredit is the direction of the movement relative to the company float
type DebitCredit string

const (
	DirectionReceived DebitCredit = "RECEIVED"
	DirectionSent     DebitCredit = "SENT"
)

// Status is the settlement lifecycle state
type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusSuccess   Status = "SUCCESS"
	StatusRejected  Status = "REJECTED"
	StatusReversed  Status = "REVERSED"
)

// Config holds the structured attributes of a settlement. The bank fields
// are only populated for BANK settlements, the wallet fields for
// CASH/CRYPTO/AED, and the reference for internal transfers and approvals.
type Config struct {
	ReferenceID string      `json:"reference_id,omitempty"`
	DebitCredit DebitCredit `json:"debit_credit,omitempty"`

	BankID        string `json:"bank_id,omitempty"`
	AccNo         string `json:"acc_no,omitempty"`
	IFSC          string `json:"ifsc,omitempty"`
	AccHolderName string `json:"acc_holder_name,omitempty"`
	BankName      string `json:"bank_name,omitempty"`

	RejectedReason string `json:"rejected_reason,omitempty"`

	BeneficiaryInitialBalance *decimal.Decimal `json:"beneficiary_initial_balance,omitempty"`
	BeneficiaryClosingBalance *decimal.Decimal `json:"beneficiary_closing_balance,omitempty"`

	Description   string `json:"description,omitempty"`
	WalletBalance string `json:"wallet_balance,omitempty"`
}

// Value implements driver.Valuer, storing the config as JSONB.
func (c Config) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *Config) Scan(src any) error {
	if src == nil {
		*c = Config{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into settlement.Config", src)
	}
	return json.Unmarshal(b, c)
}

// Settlement is one recorded money movement between the company float and a
// merchant or vendor.
type Settlement struct {
	ID        string          `json:"id"`
	Sno       int64           `json:"sno"` // monotonic, for deterministic ordering
	UserID    string          `json:"user_id"`
	CompanyID string          `json:"company_id"`
	Method    Method          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	Config    Config          `json:"config"`

	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`

	CreatedBy  string    `json:"created_by"`
	UpdatedBy  string    `json:"updated_by"`
	IsObsolete bool      `json:"is_obsolete"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MetricKey derives the ledger config key accumulating this settlement's
// method-and-direction running total, e.g. "total_cashSentSettlement_amount"
// or "total_internalSettlement_amount" for internal transfers.
func (s *Settlement) MetricKey() string {
	if s.Method.IsInternal() {
		return "total_internalSettlement_amount"
	}

	direction := "Received"
	if s.Config.DebitCredit == DirectionSent {
		direction = "Sent"
	}
	return fmt.Sprintf("total_%s%sSettlement_amount", strings.ToLower(string(s.Method)), direction)
}

// normalizeAmount applies the sign convention: RECEIVED settlements are
// stored negative (money leaving the float to the user) with one carve-out
// for positive internal transfers, SENT settlements are stored absolute.
func normalizeAmount(amount decimal.Decimal, method Method, direction DebitCredit) decimal.Decimal {
	if direction == DirectionReceived {
		if method.IsInternal() && amount.IsPositive() {
			return amount
		}
		return amount.Abs().Neg()
	}
	return amount.Abs()
}
