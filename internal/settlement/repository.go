package settlement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/velopay/payops/internal/database"
)

const settlementColumns = `
	id, sno, user_id, company_id, method, amount, status, config,
	approved_at, rejected_at, created_by, updated_by, is_obsolete, created_at, updated_at
`

// Repository handles settlement data persistence
type Repository struct{}

// NewRepository creates a new settlement repository
func NewRepository() *Repository {
	return &Repository{}
}

func scanSettlement(row interface{ Scan(...any) error }) (*Settlement, error) {
	s := &Settlement{}
	err := row.Scan(
		&s.ID,
		&s.Sno,
		&s.UserID,
		&s.CompanyID,
		&s.Method,
		&s.Amount,
		&s.Status,
		&s.Config,
		&s.ApprovedAt,
		&s.RejectedAt,
		&s.CreatedBy,
		&s.UpdatedBy,
		&s.IsObsolete,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Insert persists a new settlement and returns the stored row with its
// assigned sequence number and timestamps.
func (r *Repository) Insert(ctx context.Context, q database.DBTX, s *Settlement) (*Settlement, error) {
	query := `
		INSERT INTO settlements
			(id, user_id, company_id, method, amount, status, config, approved_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + settlementColumns

	stored, err := scanSettlement(q.QueryRowContext(ctx, query,
		s.ID, s.UserID, s.CompanyID, s.Method, s.Amount, s.Status, s.Config, s.ApprovedAt, s.CreatedBy))
	if err != nil {
		return nil, fmt.Errorf("failed to insert settlement: %w", err)
	}

	return stored, nil
}

// GetByID retrieves a live settlement by id within a company.
// Returns nil when no settlement matches or the row is soft-deleted.
func (r *Repository) GetByID(ctx context.Context, q database.DBTX, id, companyID string) (*Settlement, error) {
	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE id = $1 AND company_id = $2 AND is_obsolete = FALSE
	`

	s, err := scanSettlement(q.QueryRowContext(ctx, query, id, companyID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

// Update writes the mutable fields of a settlement back to its row.
func (r *Repository) Update(ctx context.Context, q database.DBTX, s *Settlement) (*Settlement, error) {
	query := `
		UPDATE settlements
		SET status = $3, config = $4, approved_at = $5, rejected_at = $6,
		    updated_by = $7, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND is_obsolete = FALSE
		RETURNING ` + settlementColumns

	stored, err := scanSettlement(q.QueryRowContext(ctx, query,
		s.ID, s.CompanyID, s.Status, s.Config, s.ApprovedAt, s.RejectedAt, s.UpdatedBy))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update settlement: %w", err)
	}

	return stored, nil
}

// SoftDelete marks a settlement obsolete. Rows are never hard-deleted.
func (r *Repository) SoftDelete(ctx context.Context, q database.DBTX, id, companyID, updatedBy string) (*Settlement, error) {
	query := `
		UPDATE settlements
		SET is_obsolete = TRUE, updated_by = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND is_obsolete = FALSE
		RETURNING ` + settlementColumns

	s, err := scanSettlement(q.QueryRowContext(ctx, query, id, companyID, updatedBy))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete settlement: %w", err)
	}

	return s, nil
}

// ListByUser retrieves settlements for a user ordered by sequence number.
func (r *Repository) ListByUser(ctx context.Context, q database.DBTX, userID, companyID string, limit, offset int) ([]*Settlement, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM settlements
		WHERE user_id = $1 AND company_id = $2 AND is_obsolete = FALSE
	`
	if err := q.QueryRowContext(ctx, countQuery, userID, companyID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE user_id = $1 AND company_id = $2 AND is_obsolete = FALSE
		ORDER BY sno DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := q.QueryContext(ctx, query, userID, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, total, nil
}
