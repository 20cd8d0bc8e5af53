package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getPeriodClose = `-- name: GetPeriodClose :one
SELECT owner_kind, owner_id, year, month, status, summary, locked_count, closed_by, closed_at, reopened_by, reopened_at, updated_at
FROM period_closes
WHERE owner_kind = $1 AND owner_id = $2 AND year = $3 AND month = $4
`

type GetPeriodCloseParams struct {
	OwnerKind string `json:"owner_kind"`
	OwnerID   string `json:"owner_id"`
	Year      int32  `json:"year"`
	Month     int32  `json:"month"`
}

func (q *Queries) GetPeriodClose(ctx context.Context, arg GetPeriodCloseParams) (PeriodClose, error) {
	row := q.db.QueryRow(ctx, getPeriodClose,
		arg.OwnerKind,
		arg.OwnerID,
		arg.Year,
		arg.Month,
	)
	var i PeriodClose
	err := row.Scan(
		&i.OwnerKind,
		&i.OwnerID,
		&i.Year,
		&i.Month,
		&i.Status,
		&i.Summary,
		&i.LockedCount,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.ReopenedBy,
		&i.ReopenedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPeriodClosesByOwner = `-- name: ListPeriodClosesByOwner :many
SELECT owner_kind, owner_id, year, month, status, summary, locked_count, closed_by, closed_at, reopened_by, reopened_at, updated_at
FROM period_closes
WHERE owner_kind = $1 AND owner_id = $2
ORDER BY year DESC, month DESC
LIMIT $3 OFFSET $4
`

type ListPeriodClosesByOwnerParams struct {
	OwnerKind string `json:"owner_kind"`
	OwnerID   string `json:"owner_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) ListPeriodClosesByOwner(ctx context.Context, arg ListPeriodClosesByOwnerParams) ([]PeriodClose, error) {
	rows, err := q.db.Query(ctx, listPeriodClosesByOwner,
		arg.OwnerKind,
		arg.OwnerID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PeriodClose{}
	for rows.Next() {
		var i PeriodClose
		if err := rows.Scan(
			&i.OwnerKind,
			&i.OwnerID,
			&i.Year,
			&i.Month,
			&i.Status,
			&i.Summary,
			&i.LockedCount,
			&i.ClosedBy,
			&i.ClosedAt,
			&i.ReopenedBy,
			&i.ReopenedAt,
			&i.UpdatedAt,
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

const upsertPeriodClose = `-- name: UpsertPeriodClose :exec
INSERT INTO period_closes (
    owner_kind, owner_id, year, month, status, summary, locked_count,
    closed_by, closed_at, reopened_by, reopened_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (owner_kind, owner_id, year, month) DO UPDATE SET
    status = EXCLUDED.status,
    summary = EXCLUDED.summary,
    locked_count = EXCLUDED.locked_count,
    closed_by = EXCLUDED.closed_by,
    closed_at = EXCLUDED.closed_at,
    reopened_by = EXCLUDED.reopened_by,
    reopened_at = EXCLUDED.reopened_at,
    updated_at = EXCLUDED.updated_at
`

type UpsertPeriodCloseParams struct {
	OwnerKind   string             `json:"owner_kind"`
	OwnerID     string             `json:"owner_id"`
	Year        int32              `json:"year"`
	Month       int32              `json:"month"`
	Status      string             `json:"status"`
	Summary     []byte             `json:"summary"`
	LockedCount int64              `json:"locked_count"`
	ClosedBy    string             `json:"closed_by"`
	ClosedAt    pgtype.Timestamptz `json:"closed_at"`
	ReopenedBy  string             `json:"reopened_by"`
	ReopenedAt  pgtype.Timestamptz `json:"reopened_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpsertPeriodClose(ctx context.Context, arg UpsertPeriodCloseParams) error {
	_, err := q.db.Exec(ctx, upsertPeriodClose,
		arg.OwnerKind,
		arg.OwnerID,
		arg.Year,
		arg.Month,
		arg.Status,
		arg.Summary,
		arg.LockedCount,
		arg.ClosedBy,
		arg.ClosedAt,
		arg.ReopenedBy,
		arg.ReopenedAt,
		arg.UpdatedAt,
	)
	return err
}
