package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/infrastructure/postgres/generated"
	"github.com/iho/missionledger/internal/usecase"
)

const (
	pgErrUniqueViolation = "23505"
	pgErrRaiseException  = "P0001"
)

// errForeignTransaction is returned when a repository receives a transaction
// it did not create.
var errForeignTransaction = errors.New("postgres: transaction was not started by TxManager")

func pgxTxOf(tx usecase.Transaction) (pgx.Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, errForeignTransaction
	}
	return t.PgxTx(), nil
}

// queriesFor runs on tx when one is given and on db otherwise.
func queriesFor(db generated.DBTX, tx usecase.Transaction) *generated.Queries {
	if t, ok := tx.(*Tx); ok && t != nil {
		return generated.New(t.PgxTx())
	}
	return generated.New(db)
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateEntry, pgErr.ConstraintName)
		case pgErrRaiseException:
			return fmt.Errorf("%w: %s", domain.ErrEntryLocked, pgErr.Message)
		}
	}
	return err
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(*t)
}

func pgTimestamptzPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func dateToPgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: domain.DateOf(t), Valid: true}
}

func optionalDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return dateToPgDate(*t)
}

func optionalText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func pgTextPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// ownerColumns splits an owner into its (kind, id) columns. The zero owner is
// stored as two empty strings.
func ownerColumns(o domain.Owner) (string, string) {
	return string(o.Kind()), o.ID()
}

func ownerFromColumns(kind, id string) (domain.Owner, error) {
	if kind == "" {
		return domain.Owner{}, nil
	}
	return domain.NewOwner(domain.OwnerKind(kind), id)
}

func rowToEntry(row generated.LedgerEntry) (*domain.Entry, error) {
	owner, err := ownerFromColumns(row.OwnerKind, row.OwnerID)
	if err != nil {
		return nil, err
	}
	counterparty, err := ownerFromColumns(row.CounterpartyKind, row.CounterpartyID)
	if err != nil {
		return nil, err
	}

	return &domain.Entry{
		ID:              row.ID,
		PostingID:       row.PostingID,
		Leg:             int(row.Leg),
		Kind:            domain.EntryKind(row.EntryKind),
		Owner:           owner,
		Counterparty:    counterparty,
		Amount:          numericToDecimal(row.Amount),
		SourceKind:      domain.SourceKind(row.SourceKind),
		SourceReference: row.SourceReference,
		EntryDate:       row.EntryDate.Time,
		Status:          domain.EntryStatus(row.Status),
		ReversedBy:      pgTextPtr(row.ReversedBy),
		IsLocked:        row.IsLocked,
		CreatedAt:       row.CreatedAt.Time,
	}, nil
}

func rowsToEntries(rows []generated.LedgerEntry) ([]*domain.Entry, error) {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := rowToEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
