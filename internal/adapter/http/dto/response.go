package dto

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
)

// PostingResponse represents a posting in API responses.
type PostingResponse struct {
	ID              string           `json:"id"`
	SourceKind      string           `json:"source_kind"`
	SourceReference string           `json:"source_reference"`
	Status          string           `json:"status"`
	EventDate       string           `json:"event_date"`
	ReversalOf      *string          `json:"reversal_of,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	Entries         []*EntryResponse `json:"entries"`
}

// PostingFromDomain converts a domain posting to response.
func PostingFromDomain(p *domain.Posting) *PostingResponse {
	return &PostingResponse{
		ID:              p.ID,
		SourceKind:      string(p.SourceKind),
		SourceReference: p.SourceReference,
		Status:          string(p.Status),
		EventDate:       p.EventDate.Format(DateLayout),
		ReversalOf:      p.ReversalOf,
		Metadata:        p.Metadata,
		CreatedAt:       p.CreatedAt,
		Entries:         EntriesFromDomain(p.Entries),
	}
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID              string          `json:"id"`
	PostingID       string          `json:"posting_id"`
	Leg             int             `json:"leg"`
	Owner           string          `json:"owner"`
	Kind            string          `json:"entry_kind"`
	Counterparty    string          `json:"counterparty,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	EntryDate       string          `json:"entry_date"`
	SourceKind      string          `json:"source_kind"`
	SourceReference string          `json:"source_reference"`
	Status          string          `json:"status"`
	IsLocked        bool            `json:"is_locked"`
	ReversedBy      *string         `json:"reversed_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:              e.ID,
		PostingID:       e.PostingID,
		Leg:             e.Leg,
		Owner:           e.Owner.String(),
		Kind:            string(e.Kind),
		Counterparty:    e.Counterparty.String(),
		Amount:          e.Amount,
		EntryDate:       e.EntryDate.Format(DateLayout),
		SourceKind:      string(e.SourceKind),
		SourceReference: e.SourceReference,
		Status:          string(e.Status),
		IsLocked:        e.IsLocked,
		ReversedBy:      e.ReversedBy,
		CreatedAt:       e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// BalanceResponse is one balance of one owner.
type BalanceResponse struct {
	Owner   string          `json:"owner"`
	Kind    string          `json:"entry_kind"`
	Balance decimal.Decimal `json:"balance"`
	AsOf    string          `json:"as_of,omitempty"`
}

// SpendableResponse is what an owner may spend.
type SpendableResponse struct {
	Owner     string          `json:"owner"`
	Spendable decimal.Decimal `json:"spendable"`
	AsOf      string          `json:"as_of,omitempty"`
}

// CounterpartyBalance is the open receivable against one counterparty.
type CounterpartyBalance struct {
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
}

// CounterpartiesFromMap flattens a receivables map ordered by counterparty.
func CounterpartiesFromMap(m map[domain.Owner]decimal.Decimal) []CounterpartyBalance {
	result := make([]CounterpartyBalance, 0, len(m))
	for owner, amount := range m {
		result = append(result, CounterpartyBalance{Counterparty: owner.String(), Amount: amount})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Counterparty < result[j].Counterparty
	})
	return result
}

// PeriodResponse represents the close state of one owner period.
type PeriodResponse struct {
	Owner       string                 `json:"owner"`
	Period      string                 `json:"period"`
	Status      string                 `json:"status"`
	ClosedAt    *time.Time             `json:"closed_at,omitempty"`
	ClosedBy    string                 `json:"closed_by,omitempty"`
	ReopenedAt  *time.Time             `json:"reopened_at,omitempty"`
	ReopenedBy  string                 `json:"reopened_by,omitempty"`
	LockedCount int64                  `json:"locked_count"`
	Summary     *domain.MonthlySummary `json:"summary,omitempty"`
}

// PeriodFromDomain converts a period close record to response.
func PeriodFromDomain(pc *domain.PeriodClose) *PeriodResponse {
	return &PeriodResponse{
		Owner:       pc.Owner.String(),
		Period:      pc.Period.String(),
		Status:      string(pc.Status),
		ClosedAt:    pc.ClosedAt,
		ClosedBy:    pc.ClosedBy,
		ReopenedAt:  pc.ReopenedAt,
		ReopenedBy:  pc.ReopenedBy,
		LockedCount: pc.LockedCount,
		Summary:     pc.Summary,
	}
}

// PeriodsFromDomain converts period close records to responses.
func PeriodsFromDomain(periods []*domain.PeriodClose) []*PeriodResponse {
	result := make([]*PeriodResponse, len(periods))
	for i, pc := range periods {
		result[i] = PeriodFromDomain(pc)
	}
	return result
}

// ConsistencyResponse reports the global receivable/payable check.
type ConsistencyResponse struct {
	Consistent bool   `json:"consistent"`
	Detail     string `json:"detail,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
