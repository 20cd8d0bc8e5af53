package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/infrastructure/postgres/generated"
	"github.com/iho/missionledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// GetByPosting retrieves the entries of a posting in leg order.
func (r *EntryRepository) GetByPosting(ctx context.Context, postingID string) ([]*domain.Entry, error) {
	rows, err := r.queries.GetEntriesByPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows)
}

// GetByOwner retrieves an owner's entries by entry date, then insertion order.
func (r *EntryRepository) GetByOwner(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.Entry, error) {
	kind, id := ownerColumns(owner)

	rows, err := r.queries.GetEntriesByOwner(ctx, generated.GetEntriesByOwnerParams{
		OwnerKind: kind,
		OwnerID:   id,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows)
}

// MarkReversed flips an ACTIVE unlocked entry to REVERSED.
func (r *EntryRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id, reversedBy string) error {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return err
	}

	n, err := generated.New(pgxTx).MarkEntryReversed(ctx, generated.MarkEntryReversedParams{
		ID:         id,
		ReversedBy: pgtype.Text{String: reversedBy, Valid: true},
	})
	if err != nil {
		return mapWriteError(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: entry %s", domain.ErrEntryLocked, id)
	}
	return nil
}

// OpenPair returns ACTIVE unlocked entries between creditor and debtor and
// locks their rows.
func (r *EntryRepository) OpenPair(ctx context.Context, tx usecase.Transaction, creditor, debtor domain.Owner) ([]*domain.Entry, error) {
	credKind, credID := ownerColumns(creditor)
	debtKind, debtID := ownerColumns(debtor)

	rows, err := queriesFor(r.db, tx).GetOpenPairEntries(ctx, generated.GetOpenPairEntriesParams{
		CreditorKind: credKind,
		CreditorID:   credID,
		DebtorKind:   debtKind,
		DebtorID:     debtID,
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows)
}

// MarkCleared marks the given ACTIVE entries CLEARED.
func (r *EntryRepository) MarkCleared(ctx context.Context, tx usecase.Transaction, ids []string) error {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return err
	}

	_, err = generated.New(pgxTx).MarkEntriesCleared(ctx, ids)
	return mapWriteError(err)
}

// SetLocked sets is_locked on every entry of owner dated within [from, to].
func (r *EntryRepository) SetLocked(ctx context.Context, tx usecase.Transaction, owner domain.Owner, from, to time.Time, locked bool) (int64, error) {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return 0, err
	}
	kind, id := ownerColumns(owner)

	n, err := generated.New(pgxTx).SetEntriesLocked(ctx, generated.SetEntriesLockedParams{
		OwnerKind: kind,
		OwnerID:   id,
		FromDate:  dateToPgDate(from),
		ToDate:    dateToPgDate(to),
		IsLocked:  locked,
	})
	if err != nil {
		return 0, mapWriteError(err)
	}
	return n, nil
}
