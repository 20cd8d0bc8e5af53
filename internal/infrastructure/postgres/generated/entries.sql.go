package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createEntry = `-- name: CreateEntry :exec
INSERT INTO ledger_entries (
    id, posting_id, leg, entry_kind, owner_kind, owner_id, counterparty_kind, counterparty_id,
    amount, source_kind, source_reference, entry_date, status, is_locked, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

type CreateEntryParams struct {
	ID               string             `json:"id"`
	PostingID        string             `json:"posting_id"`
	Leg              int32              `json:"leg"`
	EntryKind        string             `json:"entry_kind"`
	OwnerKind        string             `json:"owner_kind"`
	OwnerID          string             `json:"owner_id"`
	CounterpartyKind string             `json:"counterparty_kind"`
	CounterpartyID   string             `json:"counterparty_id"`
	Amount           pgtype.Numeric     `json:"amount"`
	SourceKind       string             `json:"source_kind"`
	SourceReference  string             `json:"source_reference"`
	EntryDate        pgtype.Date        `json:"entry_date"`
	Status           string             `json:"status"`
	IsLocked         bool               `json:"is_locked"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) error {
	_, err := q.db.Exec(ctx, createEntry,
		arg.ID,
		arg.PostingID,
		arg.Leg,
		arg.EntryKind,
		arg.OwnerKind,
		arg.OwnerID,
		arg.CounterpartyKind,
		arg.CounterpartyID,
		arg.Amount,
		arg.SourceKind,
		arg.SourceReference,
		arg.EntryDate,
		arg.Status,
		arg.IsLocked,
		arg.CreatedAt,
	)
	return err
}

const getEntriesByOwner = `-- name: GetEntriesByOwner :many
SELECT seq, id, posting_id, leg, entry_kind, owner_kind, owner_id, counterparty_kind, counterparty_id, amount, source_kind, source_reference, entry_date, status, reversed_by, is_locked, created_at FROM ledger_entries
WHERE owner_kind = $1 AND owner_id = $2
ORDER BY entry_date, seq
LIMIT $3 OFFSET $4
`

type GetEntriesByOwnerParams struct {
	OwnerKind string `json:"owner_kind"`
	OwnerID   string `json:"owner_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) GetEntriesByOwner(ctx context.Context, arg GetEntriesByOwnerParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, getEntriesByOwner,
		arg.OwnerKind,
		arg.OwnerID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.PostingID,
			&i.Leg,
			&i.EntryKind,
			&i.OwnerKind,
			&i.OwnerID,
			&i.CounterpartyKind,
			&i.CounterpartyID,
			&i.Amount,
			&i.SourceKind,
			&i.SourceReference,
			&i.EntryDate,
			&i.Status,
			&i.ReversedBy,
			&i.IsLocked,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getEntriesByPosting = `-- name: GetEntriesByPosting :many
SELECT seq, id, posting_id, leg, entry_kind, owner_kind, owner_id, counterparty_kind, counterparty_id, amount, source_kind, source_reference, entry_date, status, reversed_by, is_locked, created_at FROM ledger_entries
WHERE posting_id = $1
ORDER BY leg
`

func (q *Queries) GetEntriesByPosting(ctx context.Context, postingID string) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, getEntriesByPosting, postingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.PostingID,
			&i.Leg,
			&i.EntryKind,
			&i.OwnerKind,
			&i.OwnerID,
			&i.CounterpartyKind,
			&i.CounterpartyID,
			&i.Amount,
			&i.SourceKind,
			&i.SourceReference,
			&i.EntryDate,
			&i.Status,
			&i.ReversedBy,
			&i.IsLocked,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getEntriesByPostingForUpdate = `-- name: GetEntriesByPostingForUpdate :many
SELECT seq, id, posting_id, leg, entry_kind, owner_kind, owner_id, counterparty_kind, counterparty_id, amount, source_kind, source_reference, entry_date, status, reversed_by, is_locked, created_at FROM ledger_entries
WHERE posting_id = $1
ORDER BY leg
FOR UPDATE
`

func (q *Queries) GetEntriesByPostingForUpdate(ctx context.Context, postingID string) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, getEntriesByPostingForUpdate, postingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.PostingID,
			&i.Leg,
			&i.EntryKind,
			&i.OwnerKind,
			&i.OwnerID,
			&i.CounterpartyKind,
			&i.CounterpartyID,
			&i.Amount,
			&i.SourceKind,
			&i.SourceReference,
			&i.EntryDate,
			&i.Status,
			&i.ReversedBy,
			&i.IsLocked,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getOpenPairEntries = `-- name: GetOpenPairEntries :many
SELECT seq, id, posting_id, leg, entry_kind, owner_kind, owner_id, counterparty_kind, counterparty_id, amount, source_kind, source_reference, entry_date, status, reversed_by, is_locked, created_at FROM ledger_entries
WHERE status = 'ACTIVE' AND NOT is_locked
  AND (
    (entry_kind = 'RECEIVABLE' AND owner_kind = $1 AND owner_id = $2 AND counterparty_kind = $3 AND counterparty_id = $4)
    OR
    (entry_kind = 'PAYABLE' AND owner_kind = $3 AND owner_id = $4 AND counterparty_kind = $1 AND counterparty_id = $2)
  )
ORDER BY seq
FOR UPDATE
`

type GetOpenPairEntriesParams struct {
	CreditorKind string `json:"creditor_kind"`
	CreditorID   string `json:"creditor_id"`
	DebtorKind   string `json:"debtor_kind"`
	DebtorID     string `json:"debtor_id"`
}

func (q *Queries) GetOpenPairEntries(ctx context.Context, arg GetOpenPairEntriesParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, getOpenPairEntries,
		arg.CreditorKind,
		arg.CreditorID,
		arg.DebtorKind,
		arg.DebtorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.PostingID,
			&i.Leg,
			&i.EntryKind,
			&i.OwnerKind,
			&i.OwnerID,
			&i.CounterpartyKind,
			&i.CounterpartyID,
			&i.Amount,
			&i.SourceKind,
			&i.SourceReference,
			&i.EntryDate,
			&i.Status,
			&i.ReversedBy,
			&i.IsLocked,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markEntriesCleared = `-- name: MarkEntriesCleared :execrows
UPDATE ledger_entries SET status = 'CLEARED'
WHERE id = ANY($1::text[]) AND status = 'ACTIVE' AND NOT is_locked
`

func (q *Queries) MarkEntriesCleared(ctx context.Context, ids []string) (int64, error) {
	result, err := q.db.Exec(ctx, markEntriesCleared, ids)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const markEntryReversed = `-- name: MarkEntryReversed :execrows
UPDATE ledger_entries SET status = 'REVERSED', reversed_by = $2
WHERE id = $1 AND status = 'ACTIVE' AND NOT is_locked
`

type MarkEntryReversedParams struct {
	ID         string      `json:"id"`
	ReversedBy pgtype.Text `json:"reversed_by"`
}

func (q *Queries) MarkEntryReversed(ctx context.Context, arg MarkEntryReversedParams) (int64, error) {
	result, err := q.db.Exec(ctx, markEntryReversed, arg.ID, arg.ReversedBy)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setEntriesLocked = `-- name: SetEntriesLocked :execrows
UPDATE ledger_entries SET is_locked = $5
WHERE owner_kind = $1 AND owner_id = $2 AND entry_date BETWEEN $3 AND $4
`

type SetEntriesLockedParams struct {
	OwnerKind string      `json:"owner_kind"`
	OwnerID   string      `json:"owner_id"`
	FromDate  pgtype.Date `json:"from_date"`
	ToDate    pgtype.Date `json:"to_date"`
	IsLocked  bool        `json:"is_locked"`
}

func (q *Queries) SetEntriesLocked(ctx context.Context, arg SetEntriesLockedParams) (int64, error) {
	result, err := q.db.Exec(ctx, setEntriesLocked,
		arg.OwnerKind,
		arg.OwnerID,
		arg.FromDate,
		arg.ToDate,
		arg.IsLocked,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
