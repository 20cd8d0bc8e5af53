package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const sumBalance = `-- name: SumBalance :one
SELECT COALESCE(SUM(amount), 0)::NUMERIC AS total
FROM ledger_entries
WHERE owner_kind = $1 AND owner_id = $2 AND entry_kind = $3
  AND status IN ('ACTIVE', 'CLEARED')
  AND ($4::text = '' OR (counterparty_kind = $4::text AND counterparty_id = $5::text))
  AND ($6::date IS NULL OR entry_date <= $6::date)
`

type SumBalanceParams struct {
	OwnerKind        string      `json:"owner_kind"`
	OwnerID          string      `json:"owner_id"`
	EntryKind        string      `json:"entry_kind"`
	CounterpartyKind string      `json:"counterparty_kind"`
	CounterpartyID   string      `json:"counterparty_id"`
	AsOf             pgtype.Date `json:"as_of"`
}

func (q *Queries) SumBalance(ctx context.Context, arg SumBalanceParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumBalance,
		arg.OwnerKind,
		arg.OwnerID,
		arg.EntryKind,
		arg.CounterpartyKind,
		arg.CounterpartyID,
		arg.AsOf,
	)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}

const sumByCounterparty = `-- name: SumByCounterparty :many
SELECT counterparty_kind, counterparty_id, SUM(amount)::NUMERIC AS total
FROM ledger_entries
WHERE owner_kind = $1 AND owner_id = $2 AND entry_kind = $3
  AND status IN ('ACTIVE', 'CLEARED')
  AND ($4::date IS NULL OR entry_date <= $4::date)
GROUP BY counterparty_kind, counterparty_id
HAVING SUM(amount) <> 0
ORDER BY counterparty_kind, counterparty_id
`

type SumByCounterpartyParams struct {
	OwnerKind string      `json:"owner_kind"`
	OwnerID   string      `json:"owner_id"`
	EntryKind string      `json:"entry_kind"`
	AsOf      pgtype.Date `json:"as_of"`
}

type SumByCounterpartyRow struct {
	CounterpartyKind string         `json:"counterparty_kind"`
	CounterpartyID   string         `json:"counterparty_id"`
	Total            pgtype.Numeric `json:"total"`
}

func (q *Queries) SumByCounterparty(ctx context.Context, arg SumByCounterpartyParams) ([]SumByCounterpartyRow, error) {
	rows, err := q.db.Query(ctx, sumByCounterparty,
		arg.OwnerKind,
		arg.OwnerID,
		arg.EntryKind,
		arg.AsOf,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SumByCounterpartyRow{}
	for rows.Next() {
		var i SumByCounterpartyRow
		if err := rows.Scan(&i.CounterpartyKind, &i.CounterpartyID, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const periodMovements = `-- name: PeriodMovements :many
SELECT entry_kind, source_kind,
       COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)::NUMERIC AS inflow,
       COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0)::NUMERIC AS outflow,
       COUNT(*) AS entry_count
FROM ledger_entries
WHERE owner_kind = $1 AND owner_id = $2
  AND status IN ('ACTIVE', 'CLEARED')
  AND entry_date BETWEEN $3 AND $4
GROUP BY entry_kind, source_kind
ORDER BY entry_kind, source_kind
`

type PeriodMovementsParams struct {
	OwnerKind string      `json:"owner_kind"`
	OwnerID   string      `json:"owner_id"`
	FromDate  pgtype.Date `json:"from_date"`
	ToDate    pgtype.Date `json:"to_date"`
}

type PeriodMovementsRow struct {
	EntryKind  string         `json:"entry_kind"`
	SourceKind string         `json:"source_kind"`
	Inflow     pgtype.Numeric `json:"inflow"`
	Outflow    pgtype.Numeric `json:"outflow"`
	EntryCount int64          `json:"entry_count"`
}

func (q *Queries) PeriodMovements(ctx context.Context, arg PeriodMovementsParams) ([]PeriodMovementsRow, error) {
	rows, err := q.db.Query(ctx, periodMovements,
		arg.OwnerKind,
		arg.OwnerID,
		arg.FromDate,
		arg.ToDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PeriodMovementsRow{}
	for rows.Next() {
		var i PeriodMovementsRow
		if err := rows.Scan(
			&i.EntryKind,
			&i.SourceKind,
			&i.Inflow,
			&i.Outflow,
			&i.EntryCount,
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
