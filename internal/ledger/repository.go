package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/velopay/payops/internal/database"
	"github.com/velopay/payops/internal/settlement/delta"
)

// Repository handles Calculation ledger persistence
type Repository struct{}

// NewRepository creates a new ledger repository
func NewRepository() *Repository {
	return &Repository{}
}

// GetForUser retrieves the Calculation row for a user within a company.
// Returns nil when the user has no ledger row yet.
func (r *Repository) GetForUser(ctx context.Context, q database.DBTX, userID, companyID string) (*Calculation, error) {
	query := `
		SELECT id, user_id, company_id,
		       total_settlement_count, total_settlement_amount, total_settlement_commission,
		       current_balance, net_balance, config, created_at, updated_at
		FROM calculations
		WHERE user_id = $1 AND company_id = $2
	`

	c := &Calculation{}
	err := q.QueryRowContext(ctx, query, userID, companyID).Scan(
		&c.ID,
		&c.UserID,
		&c.CompanyID,
		&c.TotalSettlementCount,
		&c.TotalSettlementAmount,
		&c.TotalSettlementCommission,
		&c.CurrentBalance,
		&c.NetBalance,
		&c.Config,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get calculation: %w", err)
	}

	return c, nil
}

// ApplyDelta adds the delta's fields to the stored totals. Values are added
// in SQL so concurrent non-conflicting deltas commute; nothing is overwritten.
func (r *Repository) ApplyDelta(ctx context.Context, q database.DBTX, calculationID string, d delta.Delta) error {
	query := `
		UPDATE calculations
		SET total_settlement_count      = total_settlement_count + $2,
		    total_settlement_amount     = total_settlement_amount + $3,
		    total_settlement_commission = total_settlement_commission + $4,
		    current_balance             = current_balance + $5,
		    net_balance                 = net_balance + $6,
		    updated_at                  = NOW()
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query, calculationID,
		d.Count, d.Amount, d.Commission, d.Balance, d.Net)
	if err != nil {
		return fmt.Errorf("failed to apply ledger delta: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check ledger delta result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("calculation %s not found", calculationID)
	}

	return nil
}

// ApplyConfigPatch accumulates amounts into the keyed metric map. Each key is
// initialized at zero when absent, then incremented, all inside SQL so the
// merge is atomic with the surrounding transaction.
func (r *Repository) ApplyConfigPatch(ctx context.Context, q database.DBTX, calculationID string, patch MetricMap) error {
	query := `
		UPDATE calculations
		SET config = jsonb_set(
		        COALESCE(config, '{}'::jsonb),
		        ARRAY[$2],
		        to_jsonb(COALESCE((config ->> $2)::numeric, 0) + $3::numeric),
		        true),
		    updated_at = NOW()
		WHERE id = $1
	`

	for key, amount := range patch {
		if _, err := q.ExecContext(ctx, query, calculationID, key, amount); err != nil {
			return fmt.Errorf("failed to patch ledger config key %s: %w", key, err)
		}
	}

	return nil
}
