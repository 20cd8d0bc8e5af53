package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPosting = `-- name: CreatePosting :exec
INSERT INTO postings (id, source_kind, source_reference, event_date, status, reversal_of, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreatePostingParams struct {
	ID              string             `json:"id"`
	SourceKind      string             `json:"source_kind"`
	SourceReference string             `json:"source_reference"`
	EventDate       pgtype.Date        `json:"event_date"`
	Status          string             `json:"status"`
	ReversalOf      pgtype.Text        `json:"reversal_of"`
	Metadata        []byte             `json:"metadata"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreatePosting(ctx context.Context, arg CreatePostingParams) error {
	_, err := q.db.Exec(ctx, createPosting,
		arg.ID,
		arg.SourceKind,
		arg.SourceReference,
		arg.EventDate,
		arg.Status,
		arg.ReversalOf,
		arg.Metadata,
		arg.CreatedAt,
	)
	return err
}

const getActivePostingBySource = `-- name: GetActivePostingBySource :one
SELECT id, source_kind, source_reference, event_date, status, reversal_of, metadata, created_at FROM postings
WHERE source_kind = $1 AND source_reference = $2 AND status = 'ACTIVE'
`

type GetActivePostingBySourceParams struct {
	SourceKind      string `json:"source_kind"`
	SourceReference string `json:"source_reference"`
}

func (q *Queries) GetActivePostingBySource(ctx context.Context, arg GetActivePostingBySourceParams) (Posting, error) {
	row := q.db.QueryRow(ctx, getActivePostingBySource, arg.SourceKind, arg.SourceReference)
	var i Posting
	err := row.Scan(
		&i.ID,
		&i.SourceKind,
		&i.SourceReference,
		&i.EventDate,
		&i.Status,
		&i.ReversalOf,
		&i.Metadata,
		&i.CreatedAt,
	)
	return i, err
}

const getPosting = `-- name: GetPosting :one
SELECT id, source_kind, source_reference, event_date, status, reversal_of, metadata, created_at FROM postings
WHERE id = $1
`

func (q *Queries) GetPosting(ctx context.Context, id string) (Posting, error) {
	row := q.db.QueryRow(ctx, getPosting, id)
	var i Posting
	err := row.Scan(
		&i.ID,
		&i.SourceKind,
		&i.SourceReference,
		&i.EventDate,
		&i.Status,
		&i.ReversalOf,
		&i.Metadata,
		&i.CreatedAt,
	)
	return i, err
}

const getPostingForUpdate = `-- name: GetPostingForUpdate :one
SELECT id, source_kind, source_reference, event_date, status, reversal_of, metadata, created_at FROM postings
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetPostingForUpdate(ctx context.Context, id string) (Posting, error) {
	row := q.db.QueryRow(ctx, getPostingForUpdate, id)
	var i Posting
	err := row.Scan(
		&i.ID,
		&i.SourceKind,
		&i.SourceReference,
		&i.EventDate,
		&i.Status,
		&i.ReversalOf,
		&i.Metadata,
		&i.CreatedAt,
	)
	return i, err
}

const updatePostingStatus = `-- name: UpdatePostingStatus :execrows
UPDATE postings SET status = $2 WHERE id = $1
`

type UpdatePostingStatusParams struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (q *Queries) UpdatePostingStatus(ctx context.Context, arg UpdatePostingStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updatePostingStatus, arg.ID, arg.Status)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
