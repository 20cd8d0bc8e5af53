package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type LedgerEntry struct {
	Seq              int64              `json:"seq"`
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
	ReversedBy       pgtype.Text        `json:"reversed_by"`
	IsLocked         bool               `json:"is_locked"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}

type PeriodClose struct {
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

type Posting struct {
	ID              string             `json:"id"`
	SourceKind      string             `json:"source_kind"`
	SourceReference string             `json:"source_reference"`
	EventDate       pgtype.Date        `json:"event_date"`
	Status          string             `json:"status"`
	ReversalOf      pgtype.Text        `json:"reversal_of"`
	Metadata        []byte             `json:"metadata"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}
