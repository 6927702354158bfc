package settlement

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/velopay/payops/internal/bankconfirmation"
	"github.com/velopay/payops/internal/beneficiary"
	"github.com/velopay/payops/internal/database"
	"github.com/velopay/payops/internal/ledger"
	"github.com/velopay/payops/internal/metrics"
	"github.com/velopay/payops/internal/settlement/delta"
	"github.com/velopay/payops/internal/vendor"
	"github.com/velopay/payops/pkg/middleware"
)

// Common errors
var (
	ErrSettlementNotFound  = errors.New("settlement not found")
	ErrInvalidMethod       = errors.New("invalid settlement method")
	ErrInvalidAmount       = errors.New("settlement amount cannot be zero")
	ErrSameStatus          = errors.New("settlement is already in the requested status")
	ErrRejectedToSuccess   = errors.New("cannot change payout status from rejected to approved")
	ErrInvalidStatusChange = errors.New("invalid status change")
	ErrNoTransition        = errors.New("no settlement transition requested")
	ErrReferenceRequired   = errors.New("reference id is required for internal transfers")
	ErrReferenceExists     = errors.New("reference id already exists")
	ErrUTRNotFound         = errors.New("no confirmed bank record matches the reference id")
	ErrUTRUsed             = errors.New("utr is already used")
	ErrUTRNotConsumed      = errors.New("bank record is not held by this settlement")
	ErrVendorNotFound      = errors.New("vendor not found for user")
	ErrBeneficiaryNotFound = errors.New("beneficiary account not found")
	ErrLedgerNotFound      = errors.New("ledger row not found for user")
)

// TxRunner scopes every mutation to one writer transaction and serves
// pure reads from the reader pool.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Reader() *sql.DB
}

// Locker serializes concurrent updates to the same settlement id for the
// duration of the surrounding transaction.
type Locker interface {
	AcquireRowLock(ctx context.Context, q database.DBTX, settlementID string) error
}

// Store is the settlement persistence contract
type Store interface {
	Insert(ctx context.Context, q database.DBTX, s *Settlement) (*Settlement, error)
	GetByID(ctx context.Context, q database.DBTX, id, companyID string) (*Settlement, error)
	Update(ctx context.Context, q database.DBTX, s *Settlement) (*Settlement, error)
	SoftDelete(ctx context.Context, q database.DBTX, id, companyID, updatedBy string) (*Settlement, error)
	ListByUser(ctx context.Context, q database.DBTX, userID, companyID string, limit, offset int) ([]*Settlement, int, error)
}

// LedgerStore applies additive deltas to a user's Calculation row
type LedgerStore interface {
	GetForUser(ctx context.Context, q database.DBTX, userID, companyID string) (*ledger.Calculation, error)
	ApplyDelta(ctx context.Context, q database.DBTX, calculationID string, d delta.Delta) error
	ApplyConfigPatch(ctx context.Context, q database.DBTX, calculationID string, patch ledger.MetricMap) error
}

// ConfirmationStore claims and releases bank confirmation records
type ConfirmationStore interface {
	FindByReference(ctx context.Context, q database.DBTX, companyID, utr string) (*bankconfirmation.Record, error)
	MarkConsumed(ctx context.Context, q database.DBTX, id string) error
	Release(ctx context.Context, q database.DBTX, id string) error
}

// VendorStore resolves whether a user is a vendor and at what rate
type VendorStore interface {
	GetByUserID(ctx context.Context, q database.DBTX, userID, companyID string) (*vendor.Vendor, error)
}

// BeneficiaryStore tracks counter-party account balances
type BeneficiaryStore interface {
	FindByAccount(ctx context.Context, q database.DBTX, companyID, accNo string) (*beneficiary.Account, error)
	Adjust(ctx context.Context, q database.DBTX, id, companyID string, amount decimal.Decimal) (before, after decimal.Decimal, err error)
}

// Service is the settlement state machine. Every create/update/delete runs
// inside one writer transaction; a failure anywhere rolls back the bank
// confirmation claim, the ledger delta, the beneficiary adjustment, and the
// settlement write together.
type Service struct {
	pool          TxRunner
	locks         Locker
	store         Store
	ledgers       LedgerStore
	confirmations ConfirmationStore
	vendors       VendorStore
	beneficiaries BeneficiaryStore
	deltaFactory  *delta.Factory
	logger        *zap.Logger
}

// NewService creates a new settlement service with dependencies injected
func NewService(pool TxRunner, locks Locker, store Store, ledgers LedgerStore,
	confirmations ConfirmationStore, vendors VendorStore, beneficiaries BeneficiaryStore,
	deltaFactory *delta.Factory, logger *zap.Logger) *Service {
	return &Service{
		pool:          pool,
		locks:         locks,
		store:         store,
		ledgers:       ledgers,
		confirmations: confirmations,
		vendors:       vendors,
		beneficiaries: beneficiaries,
		deltaFactory:  deltaFactory,
		logger:        logger,
	}
}

// Create records a new settlement. Internal transfers initiated by non-vendor
// actors are reconciled against a bank confirmation record and auto-approved;
// everything else is persisted as INITIATED and waits for an operator.
func (s *Service) Create(ctx context.Context, actor middleware.Actor, req *CreateSettlementRequest) (*Settlement, error) {
	if !req.Method.Valid() {
		return nil, ErrInvalidMethod
	}
	if req.Amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	stl := &Settlement{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		CompanyID: actor.CompanyID,
		Method:    req.Method,
		Amount:    normalizeAmount(req.Amount, req.Method, req.Config.DebitCredit),
		Status:    StatusInitiated,
		Config:    req.Config,
		CreatedBy: actor.UserID,
	}

	autoApprove := req.Method.IsInternal() && actor.Role != middleware.RoleVendor

	var stored *Settlement
	err := s.pool.InTx(ctx, func(tx *sql.Tx) error {
		if !autoApprove {
			var err error
			stored, err = s.store.Insert(ctx, tx, stl)
			return err
		}

		rec, err := s.claimConfirmation(ctx, tx, actor.CompanyID, stl.Config.ReferenceID)
		if err != nil {
			return err
		}

		vnd, err := s.vendors.GetByUserID(ctx, tx, stl.UserID, actor.CompanyID)
		if err != nil {
			return err
		}
		if vnd == nil {
			return ErrVendorNotFound
		}

		now := time.Now()
		stl.Status = StatusSuccess
		stl.ApprovedAt = &now

		stored, err = s.store.Insert(ctx, tx, stl)
		if err != nil {
			return err
		}

		d := delta.InternalCreation(stored.Amount, vnd.PayinCommission)
		if err := s.applyLedger(ctx, tx, stored, d, stored.Amount); err != nil {
			return err
		}

		s.logger.Info("internal transfer auto-approved",
			zap.String("settlement_id", stored.ID),
			zap.String("utr", rec.UTR),
			zap.String("amount", stored.Amount.String()),
			zap.String("commission", d.Commission.String()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SettlementTransition(string(stored.Status))
	return stored, nil
}

// Update applies an approve, reject, or reverse transition under the
// settlement's advisory lock. Which transition runs is derived from the
// request: a reference approves, a rejected reason rejects, and an explicit
// INITIATED status on a decided settlement reverses it.
func (s *Service) Update(ctx context.Context, actor middleware.Actor, id string, req *UpdateSettlementRequest) (*Settlement, error) {
	var stored *Settlement
	err := s.pool.InTx(ctx, func(tx *sql.Tx) error {
		if err := s.locks.AcquireRowLock(ctx, tx, id); err != nil {
			return err
		}

		cur, err := s.store.GetByID(ctx, tx, id, actor.CompanyID)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrSettlementNotFound
		}

		if req.Status != "" && req.Status == cur.Status {
			return ErrSameStatus
		}
		if req.Status == StatusSuccess && cur.Status == StatusRejected {
			return ErrRejectedToSuccess
		}

		ref := req.Config.ReferenceID
		if ref != "" && ref == cur.Config.ReferenceID && !cur.Method.IsInternal() {
			return ErrReferenceExists
		}

		cur.UpdatedBy = actor.UserID

		switch {
		case ref != "":
			stored, err = s.approve(ctx, tx, cur, req)
		case req.Config.RejectedReason != "":
			stored, err = s.reject(ctx, tx, cur, req)
		case req.Status == StatusInitiated && (cur.Status == StatusSuccess || cur.Status == StatusRejected):
			stored, err = s.reverse(ctx, tx, cur)
		default:
			err = ErrNoTransition
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.SettlementTransition(string(stored.Status))
	return stored, nil
}

// approve moves an INITIATED settlement to SUCCESS and applies the matching
// ledger delta. Internal transfers additionally claim the referenced bank
// confirmation; vendor BANK settlements sync the beneficiary balance.
func (s *Service) approve(ctx context.Context, tx *sql.Tx, cur *Settlement, req *UpdateSettlementRequest) (*Settlement, error) {
	switch cur.Status {
	case StatusInitiated:
	case StatusSuccess:
		return nil, ErrSameStatus
	case StatusRejected:
		return nil, ErrRejectedToSuccess
	default:
		return nil, ErrInvalidStatusChange
	}

	if cur.Method.IsInternal() {
		if _, err := s.claimConfirmation(ctx, tx, cur.CompanyID, req.Config.ReferenceID); err != nil {
			return nil, err
		}
	}

	vnd, err := s.vendors.GetByUserID(ctx, tx, cur.UserID, cur.CompanyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cur.Status = StatusSuccess
	cur.ApprovedAt = &now
	cur.Config.ReferenceID = req.Config.ReferenceID
	mergeConfig(&cur.Config, req.Config)

	d := s.approvalDelta(cur, vnd)

	if vnd != nil && cur.Method == MethodBank {
		before, after, err := s.syncBeneficiary(ctx, tx, cur, false)
		if err != nil {
			return nil, err
		}
		cur.Config.BeneficiaryInitialBalance = &before
		cur.Config.BeneficiaryClosingBalance = &after
	}

	if err := s.applyLedger(ctx, tx, cur, d, cur.Amount); err != nil {
		return nil, err
	}

	stored, err := s.store.Update(ctx, tx, cur)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrSettlementNotFound
	}

	s.logger.Info("settlement approved",
		zap.String("settlement_id", stored.ID),
		zap.String("user_id", stored.UserID),
		zap.String("method", string(stored.Method)),
		zap.String("amount", stored.Amount.String()))
	return stored, nil
}

// reject moves an INITIATED settlement to REJECTED. Nothing was ever applied
// to the ledger, so nothing is undone.
func (s *Service) reject(ctx context.Context, tx *sql.Tx, cur *Settlement, req *UpdateSettlementRequest) (*Settlement, error) {
	switch cur.Status {
	case StatusInitiated:
	case StatusRejected:
		return nil, ErrSameStatus
	default:
		return nil, ErrInvalidStatusChange
	}

	now := time.Now()
	cur.Status = StatusRejected
	cur.RejectedAt = &now
	cur.Config.RejectedReason = req.Config.RejectedReason

	stored, err := s.store.Update(ctx, tx, cur)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrSettlementNotFound
	}

	s.logger.Info("settlement rejected",
		zap.String("settlement_id", stored.ID),
		zap.String("reason", req.Config.RejectedReason))
	return stored, nil
}

// reverse re-opens a decided settlement. A reversed SUCCESS applies the exact
// negation of its approval delta and releases any claimed bank confirmation;
// a reversed REJECTED touches nothing in the ledger.
func (s *Service) reverse(ctx context.Context, tx *sql.Tx, cur *Settlement) (*Settlement, error) {
	wasSuccess := cur.Status == StatusSuccess

	now := time.Now()
	cur.Status = StatusReversed
	cur.RejectedAt = &now

	if wasSuccess {
		vnd, err := s.vendors.GetByUserID(ctx, tx, cur.UserID, cur.CompanyID)
		if err != nil {
			return nil, err
		}

		if vnd != nil && cur.Method.IsInternal() {
			if err := s.releaseConfirmation(ctx, tx, cur); err != nil {
				return nil, err
			}
		}

		if vnd != nil && cur.Method == MethodBank {
			before, after, err := s.syncBeneficiary(ctx, tx, cur, true)
			if err != nil {
				return nil, err
			}
			cur.Config.BeneficiaryInitialBalance = &before
			cur.Config.BeneficiaryClosingBalance = &after
		}

		d := s.approvalDelta(cur, vnd).Negate()
		if err := s.applyLedger(ctx, tx, cur, d, cur.Amount.Neg()); err != nil {
			return nil, err
		}
	}

	stored, err := s.store.Update(ctx, tx, cur)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrSettlementNotFound
	}

	s.logger.Info("settlement reversed",
		zap.String("settlement_id", stored.ID),
		zap.Bool("ledger_undone", wasSuccess))
	return stored, nil
}

// Delete soft-deletes a settlement. Rows are never hard-deleted and the
// ledger is untouched; only not-yet-applied settlements reach this path.
func (s *Service) Delete(ctx context.Context, actor middleware.Actor, id string) (*Settlement, error) {
	var stored *Settlement
	err := s.pool.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		stored, err = s.store.SoftDelete(ctx, tx, id, actor.CompanyID, actor.UserID)
		if err != nil {
			return err
		}
		if stored == nil {
			return ErrSettlementNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// GetByID retrieves a settlement by its ID
func (s *Service) GetByID(ctx context.Context, actor middleware.Actor, id string) (*Settlement, error) {
	stl, err := s.store.GetByID(ctx, s.pool.Reader(), id, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	if stl == nil {
		return nil, ErrSettlementNotFound
	}
	return stl, nil
}

// ListByUser retrieves settlements for a user, newest first
func (s *Service) ListByUser(ctx context.Context, actor middleware.Actor, userID string, page, perPage int) ([]*Settlement, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.store.ListByUser(ctx, s.pool.Reader(), userID, actor.CompanyID, perPage, offset)
}

// claimConfirmation finds an unused, confirmed bank record for the reference
// and consumes it. At most one settlement can win the claim.
func (s *Service) claimConfirmation(ctx context.Context, tx *sql.Tx, companyID, ref string) (*bankconfirmation.Record, error) {
	if ref == "" {
		return nil, ErrReferenceRequired
	}

	rec, err := s.confirmations.FindByReference(ctx, tx, companyID, ref)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUTRNotFound
	}
	if rec.IsUsed || rec.Status != bankconfirmation.StatusConfirmed {
		return nil, ErrUTRUsed
	}

	if err := s.confirmations.MarkConsumed(ctx, tx, rec.ID); err != nil {
		if errors.Is(err, bankconfirmation.ErrNotClaimable) {
			return nil, ErrUTRUsed
		}
		return nil, err
	}

	return rec, nil
}

// releaseConfirmation flips the settlement's claimed bank record back to
// confirmed so a later settlement can claim it again.
func (s *Service) releaseConfirmation(ctx context.Context, tx *sql.Tx, cur *Settlement) error {
	rec, err := s.confirmations.FindByReference(ctx, tx, cur.CompanyID, cur.Config.ReferenceID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrUTRNotFound
	}
	if !rec.IsUsed {
		return ErrUTRNotConsumed
	}

	if err := s.confirmations.Release(ctx, tx, rec.ID); err != nil {
		if errors.Is(err, bankconfirmation.ErrNotClaimable) {
			return ErrUTRNotConsumed
		}
		return err
	}
	return nil
}

// approvalDelta selects the delta strategy for the settlement owner and
// computes the approval-time ledger delta.
func (s *Service) approvalDelta(cur *Settlement, vnd *vendor.Vendor) delta.Delta {
	role := delta.RoleMerchant
	rate := decimal.Zero
	if vnd != nil {
		role = delta.RoleVendor
		rate = vnd.PayinCommission
	}
	return s.deltaFactory.Create(role, cur.Method.IsInternal(), rate).Approval(cur.Amount)
}

// syncBeneficiary moves the matched beneficiary account's closing balance by
// the settlement amount. On approval the balance rises unless the movement
// was SENT; on reversal the adjustment inverts.
func (s *Service) syncBeneficiary(ctx context.Context, tx *sql.Tx, cur *Settlement, invert bool) (before, after decimal.Decimal, err error) {
	acc, err := s.beneficiaries.FindByAccount(ctx, tx, cur.CompanyID, cur.Config.AccNo)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if acc == nil {
		return decimal.Zero, decimal.Zero, ErrBeneficiaryNotFound
	}

	step := cur.Amount.Abs()
	if cur.Config.DebitCredit == DirectionSent {
		step = step.Neg()
	}
	if invert {
		step = step.Neg()
	}

	return s.beneficiaries.Adjust(ctx, tx, acc.ID, cur.CompanyID, step)
}

// applyLedger fetches the user's Calculation row and applies the delta plus
// the method-keyed running total. amount carries the sign of the transition:
// positive on approval, negated on reversal.
func (s *Service) applyLedger(ctx context.Context, tx *sql.Tx, cur *Settlement, d delta.Delta, amount decimal.Decimal) error {
	cal, err := s.ledgers.GetForUser(ctx, tx, cur.UserID, cur.CompanyID)
	if err != nil {
		return err
	}
	if cal == nil {
		return ErrLedgerNotFound
	}

	if err := s.ledgers.ApplyDelta(ctx, tx, cal.ID, d); err != nil {
		return err
	}
	if err := s.ledgers.ApplyConfigPatch(ctx, tx, cal.ID, ledger.MetricMap{cur.MetricKey(): amount}); err != nil {
		return err
	}

	metrics.LedgerDelta()
	return nil
}

// mergeConfig copies the free-text attributes an operator may attach at
// approval time. Linkage and audit fields are managed by the state machine.
func mergeConfig(dst *Config, src Config) {
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.WalletBalance != "" {
		dst.WalletBalance = src.WalletBalance
	}
}
