package database

import (
	"context"
	"fmt"
)

// AdvisoryLocker serializes concurrent mutation of the same settlement.
// The lock is transaction-scoped (pg_advisory_xact_lock), keyed by
// hashtext(settlement id), and released automatically at commit or rollback;
// there is deliberately no unlock path.
type AdvisoryLocker struct{}

// NewAdvisoryLocker creates a new advisory lock manager.
func NewAdvisoryLocker() *AdvisoryLocker {
	return &AdvisoryLocker{}
}

// AcquireRowLock blocks until the exclusive lock for settlementID is held by
// the given transaction. A second transaction calling this for the same id
// waits until the first commits or rolls back.
func (l *AdvisoryLocker) AcquireRowLock(ctx context.Context, tx DBTX, settlementID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, settlementID); err != nil {
		return fmt.Errorf("failed to acquire settlement lock: %w", err)
	}
	return nil
}
