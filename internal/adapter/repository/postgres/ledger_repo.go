package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency returns the ledger-wide receivable and payable totals.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalReceivable decimal.Decimal, totalPayable decimal.Decimal, err error) {
	result, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(result.TotalReceivable), numericToDecimal(result.TotalPayable), nil
}

// PairBalances returns both sides of every creditor/debtor pair.
func (r *LedgerRepository) PairBalances(ctx context.Context) ([]domain.PairBalance, error) {
	rows, err := r.queries.PairBalances(ctx)
	if err != nil {
		return nil, err
	}

	pairs := make([]domain.PairBalance, 0, len(rows))
	for _, row := range rows {
		creditor, err := ownerFromColumns(row.CreditorKind, row.CreditorID)
		if err != nil {
			return nil, err
		}
		debtor, err := ownerFromColumns(row.DebtorKind, row.DebtorID)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, domain.PairBalance{
			Creditor:   creditor,
			Debtor:     debtor,
			Receivable: numericToDecimal(row.Receivable),
			Payable:    numericToDecimal(row.Payable),
		})
	}

	return pairs, nil
}
