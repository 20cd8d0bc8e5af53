package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const acquireOwnerLock = `-- name: AcquireOwnerLock :exec
SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))
`

func (q *Queries) AcquireOwnerLock(ctx context.Context, key string) error {
	_, err := q.db.Exec(ctx, acquireOwnerLock, key)
	return err
}

const checkLedgerConsistency = `-- name: CheckLedgerConsistency :one
SELECT
    COALESCE(SUM(amount) FILTER (WHERE entry_kind = 'RECEIVABLE'), 0)::NUMERIC AS total_receivable,
    COALESCE(SUM(amount) FILTER (WHERE entry_kind = 'PAYABLE'), 0)::NUMERIC AS total_payable
FROM ledger_entries
WHERE status IN ('ACTIVE', 'CLEARED')
`

type CheckLedgerConsistencyRow struct {
	TotalReceivable pgtype.Numeric `json:"total_receivable"`
	TotalPayable    pgtype.Numeric `json:"total_payable"`
}

func (q *Queries) CheckLedgerConsistency(ctx context.Context) (CheckLedgerConsistencyRow, error) {
	row := q.db.QueryRow(ctx, checkLedgerConsistency)
	var i CheckLedgerConsistencyRow
	err := row.Scan(&i.TotalReceivable, &i.TotalPayable)
	return i, err
}

const pairBalances = `-- name: PairBalances :many
SELECT
    CASE WHEN entry_kind = 'RECEIVABLE' THEN owner_kind ELSE counterparty_kind END AS creditor_kind,
    CASE WHEN entry_kind = 'RECEIVABLE' THEN owner_id ELSE counterparty_id END AS creditor_id,
    CASE WHEN entry_kind = 'RECEIVABLE' THEN counterparty_kind ELSE owner_kind END AS debtor_kind,
    CASE WHEN entry_kind = 'RECEIVABLE' THEN counterparty_id ELSE owner_id END AS debtor_id,
    COALESCE(SUM(amount) FILTER (WHERE entry_kind = 'RECEIVABLE'), 0)::NUMERIC AS receivable,
    COALESCE(SUM(amount) FILTER (WHERE entry_kind = 'PAYABLE'), 0)::NUMERIC AS payable
FROM ledger_entries
WHERE status IN ('ACTIVE', 'CLEARED') AND entry_kind IN ('RECEIVABLE', 'PAYABLE')
GROUP BY 1, 2, 3, 4
ORDER BY 1, 2, 3, 4
`

type PairBalancesRow struct {
	CreditorKind string         `json:"creditor_kind"`
	CreditorID   string         `json:"creditor_id"`
	DebtorKind   string         `json:"debtor_kind"`
	DebtorID     string         `json:"debtor_id"`
	Receivable   pgtype.Numeric `json:"receivable"`
	Payable      pgtype.Numeric `json:"payable"`
}

func (q *Queries) PairBalances(ctx context.Context) ([]PairBalancesRow, error) {
	rows, err := q.db.Query(ctx, pairBalances)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PairBalancesRow{}
	for rows.Next() {
		var i PairBalancesRow
		if err := rows.Scan(
			&i.CreditorKind,
			&i.CreditorID,
			&i.DebtorKind,
			&i.DebtorID,
			&i.Receivable,
			&i.Payable,
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
