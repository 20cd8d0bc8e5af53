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

// PostingRepository implements usecase.PostingRepository.
type PostingRepository struct {
	db generated.DBTX
}

// NewPostingRepository creates a new PostingRepository.
func NewPostingRepository(pool *pgxpool.Pool) *PostingRepository {
	return newPostingRepository(pool)
}

func newPostingRepository(db generated.DBTX) *PostingRepository {
	return &PostingRepository{db: db}
}

// Create stores the posting header and its entries. A concurrent writer that
// already holds the active slot for the source makes this fail with
// domain.ErrDuplicateEntry.
func (r *PostingRepository) Create(ctx context.Context, tx usecase.Transaction, posting *domain.Posting) error {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return err
	}
	queries := generated.New(pgxTx)

	metadata, err := json.Marshal(posting.Metadata)
	if err != nil {
		return err
	}
	if posting.Metadata == nil {
		metadata = []byte("{}")
	}

	err = queries.CreatePosting(ctx, generated.CreatePostingParams{
		ID:              posting.ID,
		SourceKind:      string(posting.SourceKind),
		SourceReference: posting.SourceReference,
		EventDate:       dateToPgDate(posting.EventDate),
		Status:          string(posting.Status),
		ReversalOf:      optionalText(posting.ReversalOf),
		Metadata:        metadata,
		CreatedAt:       timeToPgTimestamptz(posting.CreatedAt),
	})
	if err != nil {
		return mapWriteError(err)
	}

	for _, e := range posting.Entries {
		ownerKind, ownerID := ownerColumns(e.Owner)
		cpKind, cpID := ownerColumns(e.Counterparty)

		err := queries.CreateEntry(ctx, generated.CreateEntryParams{
			ID:               e.ID,
			PostingID:        posting.ID,
			Leg:              int32(e.Leg),
			EntryKind:        string(e.Kind),
			OwnerKind:        ownerKind,
			OwnerID:          ownerID,
			CounterpartyKind: cpKind,
			CounterpartyID:   cpID,
			Amount:           decimalToNumeric(e.Amount),
			SourceKind:       string(e.SourceKind),
			SourceReference:  e.SourceReference,
			EntryDate:        dateToPgDate(e.EntryDate),
			Status:           string(e.Status),
			IsLocked:         e.IsLocked,
			CreatedAt:        timeToPgTimestamptz(e.CreatedAt),
		})
		if err != nil {
			return mapWriteError(err)
		}
	}

	return nil
}

// GetByID retrieves a posting with its entries.
func (r *PostingRepository) GetByID(ctx context.Context, id string) (*domain.Posting, error) {
	queries := generated.New(r.db)

	row, err := queries.GetPosting(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostingNotFound
		}
		return nil, err
	}

	entries, err := queries.GetEntriesByPosting(ctx, id)
	if err != nil {
		return nil, err
	}

	return rowToPosting(row, entries)
}

// GetByIDForUpdate retrieves a posting and locks its header and entry rows.
func (r *PostingRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Posting, error) {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return nil, err
	}
	queries := generated.New(pgxTx)

	row, err := queries.GetPostingForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostingNotFound
		}
		return nil, err
	}

	entries, err := queries.GetEntriesByPostingForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	return rowToPosting(row, entries)
}

// GetActiveBySource returns nil, nil when the source has no active posting.
func (r *PostingRepository) GetActiveBySource(ctx context.Context, tx usecase.Transaction, kind domain.SourceKind, ref string) (*domain.Posting, error) {
	queries := queriesFor(r.db, tx)

	row, err := queries.GetActivePostingBySource(ctx, generated.GetActivePostingBySourceParams{
		SourceKind:      string(kind),
		SourceReference: ref,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	entries, err := queries.GetEntriesByPosting(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	return rowToPosting(row, entries)
}

// UpdateStatus sets the posting header status.
func (r *PostingRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.PostingStatus) error {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return err
	}

	n, err := generated.New(pgxTx).UpdatePostingStatus(ctx, generated.UpdatePostingStatusParams{
		ID:     id,
		Status: string(status),
	})
	if err != nil {
		return mapWriteError(err)
	}
	if n == 0 {
		return domain.ErrPostingNotFound
	}
	return nil
}

func rowToPosting(row generated.Posting, entryRows []generated.LedgerEntry) (*domain.Posting, error) {
	var metadata map[string]any
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			return nil, err
		}
	}

	entries, err := rowsToEntries(entryRows)
	if err != nil {
		return nil, err
	}

	return &domain.Posting{
		ID:              row.ID,
		SourceKind:      domain.SourceKind(row.SourceKind),
		SourceReference: row.SourceReference,
		EventDate:       row.EventDate.Time,
		Status:          domain.PostingStatus(row.Status),
		ReversalOf:      pgTextPtr(row.ReversalOf),
		Metadata:        metadata,
		CreatedAt:       row.CreatedAt.Time,
		Entries:         entries,
	}, nil
}
