package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/infrastructure/postgres/generated"
	"github.com/iho/missionledger/internal/usecase"
)

// PeriodRepository implements usecase.PeriodRepository.
type PeriodRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewPeriodRepository creates a new PeriodRepository.
func NewPeriodRepository(pool *pgxpool.Pool) *PeriodRepository {
	return newPeriodRepository(pool)
}

func newPeriodRepository(db generated.DBTX) *PeriodRepository {
	return &PeriodRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Get returns nil, nil for a period that was never closed.
func (r *PeriodRepository) Get(ctx context.Context, tx usecase.Transaction, owner domain.Owner, period domain.Period) (*domain.PeriodClose, error) {
	kind, id := ownerColumns(owner)

	row, err := queriesFor(r.db, tx).GetPeriodClose(ctx, generated.GetPeriodCloseParams{
		OwnerKind: kind,
		OwnerID:   id,
		Year:      int32(period.Year),
		Month:     int32(period.Month),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return rowToPeriodClose(row)
}

// Upsert inserts or replaces the close record of an owner period.
func (r *PeriodRepository) Upsert(ctx context.Context, tx usecase.Transaction, pc *domain.PeriodClose) error {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return err
	}

	var summary []byte
	if pc.Summary != nil {
		summary, err = json.Marshal(pc.Summary)
		if err != nil {
			return err
		}
	}

	kind, id := ownerColumns(pc.Owner)

	return generated.New(pgxTx).UpsertPeriodClose(ctx, generated.UpsertPeriodCloseParams{
		OwnerKind:   kind,
		OwnerID:     id,
		Year:        int32(pc.Period.Year),
		Month:       int32(pc.Period.Month),
		Status:      string(pc.Status),
		Summary:     summary,
		LockedCount: pc.LockedCount,
		ClosedBy:    pc.ClosedBy,
		ClosedAt:    optionalTimestamptz(pc.ClosedAt),
		ReopenedBy:  pc.ReopenedBy,
		ReopenedAt:  optionalTimestamptz(pc.ReopenedAt),
		UpdatedAt:   timeToPgTimestamptz(pc.UpdatedAt),
	})
}

// ListByOwner lists an owner's close records, newest period first.
func (r *PeriodRepository) ListByOwner(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.PeriodClose, error) {
	kind, id := ownerColumns(owner)

	rows, err := r.queries.ListPeriodClosesByOwner(ctx, generated.ListPeriodClosesByOwnerParams{
		OwnerKind: kind,
		OwnerID:   id,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	closes := make([]*domain.PeriodClose, 0, len(rows))
	for _, row := range rows {
		pc, err := rowToPeriodClose(row)
		if err != nil {
			return nil, err
		}
		closes = append(closes, pc)
	}

	return closes, nil
}

func rowToPeriodClose(row generated.PeriodClose) (*domain.PeriodClose, error) {
	owner, err := ownerFromColumns(row.OwnerKind, row.OwnerID)
	if err != nil {
		return nil, err
	}
	period, err := domain.NewPeriod(int(row.Year), int(row.Month))
	if err != nil {
		return nil, err
	}

	var summary *domain.MonthlySummary
	if len(row.Summary) > 0 {
		summary = &domain.MonthlySummary{}
		if err := json.Unmarshal(row.Summary, summary); err != nil {
			return nil, err
		}
	}

	return &domain.PeriodClose{
		Owner:       owner,
		Period:      period,
		Status:      domain.PeriodStatus(row.Status),
		Summary:     summary,
		LockedCount: row.LockedCount,
		ClosedBy:    row.ClosedBy,
		ClosedAt:    pgTimestamptzPtr(row.ClosedAt),
		ReopenedBy:  row.ReopenedBy,
		ReopenedAt:  pgTimestamptzPtr(row.ReopenedAt),
		UpdatedAt:   row.UpdatedAt.Time,
	}, nil
}
