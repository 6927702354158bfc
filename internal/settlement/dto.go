package settlement

import (
	"github.com/shopspring/decimal"
)

// CreateSettlementRequest represents the request to create a settlement
type CreateSettlementRequest struct {
	UserID string          `json:"user_id" validate:"required"`
	Method Method          `json:"method" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Config Config          `json:"config"`
}

// UpdateSettlementRequest carries the approve/reject/reverse intent.
// Exactly which transition runs is derived from which fields are set:
// a reference approves, a rejected reason rejects, and an explicit
// INITIATED status on an already-decided settlement reverses it.
type UpdateSettlementRequest struct {
	Status Status `json:"status,omitempty"`
	Config Config `json:"config"`
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID         string          `json:"id"`
	Sno        int64           `json:"sno"`
	UserID     string          `json:"user_id"`
	Method     Method          `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	Status     Status          `json:"status"`
	Config     Config          `json:"config"`
	ApprovedAt string          `json:"approved_at,omitempty"`
	RejectedAt string          `json:"rejected_at,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	resp := &SettlementResponse{
		ID:        s.ID,
		Sno:       s.Sno,
		UserID:    s.UserID,
		Method:    s.Method,
		Amount:    s.Amount,
		Status:    s.Status,
		Config:    s.Config,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if s.ApprovedAt != nil {
		resp.ApprovedAt = s.ApprovedAt.Format("2006-01-02T15:04:05Z")
	}
	if s.RejectedAt != nil {
		resp.RejectedAt = s.RejectedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}
