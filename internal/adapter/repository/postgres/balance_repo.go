package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/infrastructure/postgres/generated"
	"github.com/iho/missionledger/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository. Balances are never
// stored; every read sums posted entries.
type BalanceRepository struct {
	db generated.DBTX
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return newBalanceRepository(pool)
}

func newBalanceRepository(db generated.DBTX) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Sum totals the entries matching filter.
func (r *BalanceRepository) Sum(ctx context.Context, tx usecase.Transaction, filter usecase.BalanceFilter) (decimal.Decimal, error) {
	ownerKind, ownerID := ownerColumns(filter.Owner)
	cpKind, cpID := ownerColumns(filter.Counterparty)

	total, err := queriesFor(r.db, tx).SumBalance(ctx, generated.SumBalanceParams{
		OwnerKind:        ownerKind,
		OwnerID:          ownerID,
		EntryKind:        string(filter.Kind),
		CounterpartyKind: cpKind,
		CounterpartyID:   cpID,
		AsOf:             optionalDate(filter.AsOf),
	})
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

// ByCounterparty totals an owner's entries of one kind per counterparty.
func (r *BalanceRepository) ByCounterparty(ctx context.Context, tx usecase.Transaction, owner domain.Owner, kind domain.EntryKind, asOf *time.Time) (map[domain.Owner]decimal.Decimal, error) {
	ownerKind, ownerID := ownerColumns(owner)

	rows, err := queriesFor(r.db, tx).SumByCounterparty(ctx, generated.SumByCounterpartyParams{
		OwnerKind: ownerKind,
		OwnerID:   ownerID,
		EntryKind: string(kind),
		AsOf:      optionalDate(asOf),
	})
	if err != nil {
		return nil, err
	}

	totals := make(map[domain.Owner]decimal.Decimal, len(rows))
	for _, row := range rows {
		cp, err := ownerFromColumns(row.CounterpartyKind, row.CounterpartyID)
		if err != nil {
			return nil, err
		}
		totals[cp] = numericToDecimal(row.Total)
	}

	return totals, nil
}

// Movements groups an owner's posted entries dated within [from, to].
func (r *BalanceRepository) Movements(ctx context.Context, tx usecase.Transaction, owner domain.Owner, from, to time.Time) ([]domain.Movement, int64, error) {
	ownerKind, ownerID := ownerColumns(owner)

	rows, err := queriesFor(r.db, tx).PeriodMovements(ctx, generated.PeriodMovementsParams{
		OwnerKind: ownerKind,
		OwnerID:   ownerID,
		FromDate:  dateToPgDate(from),
		ToDate:    dateToPgDate(to),
	})
	if err != nil {
		return nil, 0, err
	}

	var count int64
	movements := make([]domain.Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, domain.Movement{
			Kind:       domain.EntryKind(row.EntryKind),
			SourceKind: domain.SourceKind(row.SourceKind),
			Inflow:     numericToDecimal(row.Inflow),
			Outflow:    numericToDecimal(row.Outflow),
		})
		count += row.EntryCount
	}

	return movements, count, nil
}
