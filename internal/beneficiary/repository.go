package beneficiary

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/velopay/payops/internal/database"
)

// Repository handles beneficiary account persistence
type Repository struct{}

// NewRepository creates a new beneficiary repository
func NewRepository() *Repository {
	return &Repository{}
}

// FindByAccount retrieves a beneficiary account by its account number within
// a company. Returns nil when no account matches.
func (r *Repository) FindByAccount(ctx context.Context, q database.DBTX, companyID, accNo string) (*Account, error) {
	query := `
		SELECT id, company_id, acc_no, ifsc, acc_holder_name, bank_name, config, created_at, updated_at
		FROM beneficiary_accounts
		WHERE company_id = $1 AND acc_no = $2
	`

	acc := &Account{}
	err := q.QueryRowContext(ctx, query, companyID, accNo).Scan(
		&acc.ID,
		&acc.CompanyID,
		&acc.AccNo,
		&acc.IFSC,
		&acc.AccHolderName,
		&acc.BankName,
		&acc.Config,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find beneficiary account: %w", err)
	}

	return acc, nil
}

// Adjust moves the account's closing balance by the signed amount and returns
// the before/after pair for audit embedding into the settlement record.
func (r *Repository) Adjust(ctx context.Context, q database.DBTX, id, companyID string, amount decimal.Decimal) (before, after decimal.Decimal, err error) {
	query := `
		UPDATE beneficiary_accounts
		SET config = jsonb_set(config, '{closing_balance}',
		        to_jsonb((config ->> 'closing_balance')::numeric + $3::numeric), true),
		    updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING (config ->> 'closing_balance')::numeric - $3::numeric,
		          (config ->> 'closing_balance')::numeric
	`

	err = q.QueryRowContext(ctx, query, id, companyID, amount).Scan(&before, &after)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, decimal.Zero, fmt.Errorf("beneficiary account %s not found", id)
		}
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to adjust beneficiary balance: %w", err)
	}

	return before, after, nil
}
