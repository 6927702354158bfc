package bankconfirmation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/velopay/payops/internal/database"
)

// ErrNotClaimable reports that the record's markers did not match the
// expected state when flipping them, meaning a concurrent transaction won.
var ErrNotClaimable = errors.New("bank confirmation is not claimable")

// Repository handles bank confirmation persistence
type Repository struct{}

// NewRepository creates a new bank confirmation repository
func NewRepository() *Repository {
	return &Repository{}
}

// FindByReference retrieves a record by its UTR reference code.
// Returns nil when no record matches.
func (r *Repository) FindByReference(ctx context.Context, q database.DBTX, companyID, utr string) (*Record, error) {
	query := `
		SELECT id, company_id, utr, amount, bank_id, status, is_used, created_at, updated_at
		FROM bank_confirmations
		WHERE company_id = $1 AND utr = $2
	`

	rec := &Record{}
	err := q.QueryRowContext(ctx, query, companyID, utr).Scan(
		&rec.ID,
		&rec.CompanyID,
		&rec.UTR,
		&rec.Amount,
		&rec.BankID,
		&rec.Status,
		&rec.IsUsed,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find bank confirmation: %w", err)
	}

	return rec, nil
}

// MarkConsumed claims a confirmed, unused record. The conditional UPDATE is
// the guard: inside concurrent transactions only one claim flips the row, the
// other sees zero rows affected and fails with ErrNotClaimable.
func (r *Repository) MarkConsumed(ctx context.Context, q database.DBTX, id string) error {
	query := `
		UPDATE bank_confirmations
		SET status = $2, is_used = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = $3 AND is_used = FALSE
	`
	return r.flip(ctx, q, query, id, StatusConsumed, StatusConfirmed)
}

// Release returns a consumed record to the claimable pool when the settlement
// that held it is reversed.
func (r *Repository) Release(ctx context.Context, q database.DBTX, id string) error {
	query := `
		UPDATE bank_confirmations
		SET status = $2, is_used = FALSE, updated_at = NOW()
		WHERE id = $1 AND status = $3 AND is_used = TRUE
	`
	return r.flip(ctx, q, query, id, StatusConfirmed, StatusConsumed)
}

func (r *Repository) flip(ctx context.Context, q database.DBTX, query, id string, to, from Status) error {
	result, err := q.ExecContext(ctx, query, id, to, from)
	if err != nil {
		return fmt.Errorf("failed to update bank confirmation status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check bank confirmation update: %w", err)
	}
	if rows == 0 {
		return ErrNotClaimable
	}

	return nil
}
