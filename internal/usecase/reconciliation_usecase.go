package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/missionledger/internal/domain"
)

// ReconciliationUseCase compares both sides of every creditor/debtor pair.
type ReconciliationUseCase struct {
	ledgerRepo LedgerRepository
	now        func() time.Time
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(ledgerRepo LedgerRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		ledgerRepo: ledgerRepo,
		now:        time.Now,
	}
}

// ReconciliationReport lists every pair and the ones whose sides disagree.
type ReconciliationReport struct {
	CheckedAt    time.Time            `json:"checked_at"`
	Pairs        []domain.PairBalance `json:"pairs"`
	Mismatched   []domain.PairBalance `json:"mismatched"`
	IsReconciled bool                 `json:"is_reconciled"`
}

// Reconcile builds the pair report.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	pairs, err := uc.ledgerRepo.PairBalances(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		CheckedAt:  uc.now().UTC(),
		Pairs:      pairs,
		Mismatched: []domain.PairBalance{},
	}
	for _, p := range pairs {
		if !p.Matched() {
			report.Mismatched = append(report.Mismatched, p)
		}
	}
	report.IsReconciled = len(report.Mismatched) == 0

	return report, nil
}

// CheckLedgerConsistency verifies the global totals and reports the difference.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	totalReceivable, totalPayable, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return err
	}

	if !totalReceivable.Equal(totalPayable) {
		return fmt.Errorf(
			"%w: receivable=%s payable=%s difference=%s",
			ErrInconsistentLedger,
			totalReceivable.String(),
			totalPayable.String(),
			totalReceivable.Sub(totalPayable).String(),
		)
	}

	return nil
}
