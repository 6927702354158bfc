package beneficiary

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds the running balance snapshot for a beneficiary account
type Config struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
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
		return fmt.Errorf("cannot scan %T into beneficiary.Config", src)
	}
	return json.Unmarshal(b, c)
}

// Account is a counter-party bank account with a tracked running balance.
// The balance only moves as a side-effect of BANK-method vendor settlements
// reaching SUCCESS or REVERSED.
type Account struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	AccNo         string    `json:"acc_no"`
	IFSC          string    `json:"ifsc"`
	AccHolderName string    `json:"acc_holder_name"`
	BankName      string    `json:"bank_name"`
	Config        Config    `json:"config"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
