package domain

import "time"

// Event types
const (
	EventTypePostingCreated  = "posting.created"
	EventTypePostingReversed = "posting.reversed"
	EventTypePeriodClosed    = "period.closed"
	EventTypePeriodReopened  = "period.reopened"
)

// Aggregate types
const (
	AggregateTypePosting = "posting"
	AggregateTypePeriod  = "period"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// PostingCreatedEvent payload
type PostingCreatedEvent struct {
	PostingID       string   `json:"posting_id"`
	SourceKind      string   `json:"source_kind"`
	SourceReference string   `json:"source_reference"`
	EventDate       string   `json:"event_date"`
	Owners          []string `json:"owners"`
	EntryCount      int      `json:"entry_count"`
}

// PostingReversedEvent payload
type PostingReversedEvent struct {
	ReversalPostingID string `json:"reversal_posting_id"`
	OriginalPostingID string `json:"original_posting_id"`
	SourceKind        string `json:"source_kind"`
	SourceReference   string `json:"source_reference"`
	ReversalDate      string `json:"reversal_date"`
}

// PeriodClosedEvent payload
type PeriodClosedEvent struct {
	Owner       string `json:"owner"`
	Period      string `json:"period"`
	ClosedBy    string `json:"closed_by"`
	LockedCount int64  `json:"locked_count"`
}

// PeriodReopenedEvent payload
type PeriodReopenedEvent struct {
	Owner         string `json:"owner"`
	Period        string `json:"period"`
	ReopenedBy    string `json:"reopened_by"`
	UnlockedCount int64  `json:"unlocked_count"`
}
