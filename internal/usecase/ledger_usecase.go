package usecase

import (
	"context"
	"errors"
)

var (
	// ErrInconsistentLedger is returned when receivables and payables disagree.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: receivables do not equal payables")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConsistency verifies that every receivable in the ledger is matched by
// a payable: the global RECEIVABLE total equals the global PAYABLE total.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	totalReceivable, totalPayable, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return false, err
	}

	if !totalReceivable.Equal(totalPayable) {
		return false, ErrInconsistentLedger
	}

	return true, nil
}
