package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PostingStatus is the lifecycle state of a posting.
type PostingStatus string

const (
	PostingStatusActive   PostingStatus = "ACTIVE"
	PostingStatusReversed PostingStatus = "REVERSED"
)

// Posting is the balanced bundle of entries produced by one business event.
// At most one ACTIVE posting exists per (SourceKind, SourceReference).
type Posting struct {
	CreatedAt       time.Time
	EventDate       time.Time
	Metadata        map[string]any
	ReversalOf      *string
	ID              string
	SourceReference string
	SourceKind      SourceKind
	Status          PostingStatus
	Entries         []*Entry
}

type pairKey struct {
	creditor Owner
	debtor   Owner
}

// Validate checks the bundle before anything is written. Every RECEIVABLE of
// an owner against a counterparty must be matched by a PAYABLE of the
// counterparty against that owner with the same total.
func (p *Posting) Validate() error {
	if !p.SourceKind.IsValid() {
		return fmt.Errorf("%w: unknown source kind %q", ErrUnbalancedBundle, p.SourceKind)
	}
	if strings.TrimSpace(p.SourceReference) == "" {
		return ErrMissingSource
	}
	if p.EventDate.IsZero() {
		return ErrMissingDate
	}
	if len(p.Entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrUnbalancedBundle)
	}

	pairs := make(map[pairKey]decimal.Decimal)
	for i, e := range p.Entries {
		if err := p.validateEntry(i, e); err != nil {
			return err
		}

		switch e.Kind {
		case EntryKindReceivable:
			k := pairKey{creditor: e.Owner, debtor: e.Counterparty}
			pairs[k] = pairs[k].Add(e.Amount)
		case EntryKindPayable:
			k := pairKey{creditor: e.Counterparty, debtor: e.Owner}
			pairs[k] = pairs[k].Sub(e.Amount)
		}
	}

	for k, net := range pairs {
		if !net.IsZero() {
			return fmt.Errorf("%w: %s receivable against %s differs from payable by %s",
				ErrUnbalancedBundle, k.creditor, k.debtor, net.StringFixed(2))
		}
	}

	return nil
}

func (p *Posting) validateEntry(i int, e *Entry) error {
	if e == nil {
		return fmt.Errorf("%w: leg %d is empty", ErrUnbalancedBundle, i)
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("%w: leg %d: %q", ErrInvalidEntryKind, i, e.Kind)
	}
	if err := e.Owner.Validate(); err != nil {
		return fmt.Errorf("leg %d: %w", i, err)
	}
	if e.Amount.IsZero() {
		return fmt.Errorf("%w: leg %d has zero amount", ErrUnbalancedBundle, i)
	}
	if e.SourceKind != p.SourceKind || e.SourceReference != p.SourceReference {
		return fmt.Errorf("%w: leg %d source differs from posting", ErrUnbalancedBundle, i)
	}

	if !e.Kind.NeedsCounterparty() {
		if !e.Counterparty.IsZero() {
			return fmt.Errorf("%w: cash leg %d has a counterparty", ErrUnbalancedBundle, i)
		}
		return nil
	}
	if err := e.Counterparty.Validate(); err != nil {
		return fmt.Errorf("leg %d counterparty: %w", i, err)
	}
	if e.Counterparty == e.Owner {
		return fmt.Errorf("%w: leg %d owner is its own counterparty", ErrUnbalancedBundle, i)
	}
	return nil
}

// Owners returns the distinct owners touched by the posting in lock order.
func (p *Posting) Owners() []Owner {
	seen := make(map[Owner]struct{}, len(p.Entries))
	owners := make([]Owner, 0, len(p.Entries))
	for _, e := range p.Entries {
		if _, ok := seen[e.Owner]; ok {
			continue
		}
		seen[e.Owner] = struct{}{}
		owners = append(owners, e.Owner)
	}
	SortOwners(owners)
	return owners
}

// OwnerPeriods returns the distinct (owner, period) pairs the posting writes into.
func (p *Posting) OwnerPeriods() []OwnerPeriod {
	seen := make(map[OwnerPeriod]struct{}, len(p.Entries))
	out := make([]OwnerPeriod, 0, len(p.Entries))
	for _, e := range p.Entries {
		op := OwnerPeriod{Owner: e.Owner, Period: PeriodOf(e.EntryDate)}
		if _, ok := seen[op]; ok {
			continue
		}
		seen[op] = struct{}{}
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Owner != out[j].Owner {
			return out[i].Owner.String() < out[j].Owner.String()
		}
		return out[i].Period.Before(out[j].Period)
	})
	return out
}

// SortOwners orders owners by their string form. All lock acquisition uses
// this order.
func SortOwners(owners []Owner) {
	sort.Slice(owners, func(i, j int) bool {
		return owners[i].String() < owners[j].String()
	})
}

// Reversal builds the offsetting posting for p dated at date.
//
// When none of the originals is locked, originals and offsets are both marked
// REVERSED and the bundle drops out of every balance. Locked originals are
// immutable, so in that case the offsets stay ACTIVE and cancel the originals
// from date onwards.
func (p *Posting) Reversal(date time.Time, reason string) *Posting {
	date = DateOf(date)
	originalID := p.ID

	offsetStatus := EntryStatusReversed
	if p.HasLockedEntries() {
		offsetStatus = EntryStatusActive
	}

	rev := &Posting{
		EventDate:       date,
		SourceKind:      SourceReversal,
		SourceReference: p.ID,
		Status:          PostingStatusReversed,
		ReversalOf:      &originalID,
		Metadata: map[string]any{
			"original_source_kind":      string(p.SourceKind),
			"original_source_reference": p.SourceReference,
		},
	}
	if reason != "" {
		rev.Metadata["reason"] = reason
	}

	for i, e := range p.Entries {
		rev.Entries = append(rev.Entries, &Entry{
			Leg:             i,
			Kind:            e.Kind,
			Owner:           e.Owner,
			Counterparty:    e.Counterparty,
			Amount:          e.Amount.Neg(),
			SourceKind:      SourceReversal,
			SourceReference: p.ID,
			EntryDate:       date,
			Status:          offsetStatus,
		})
	}
	return rev
}

// CanReverse reports why p cannot be reversed, if it cannot.
func (p *Posting) CanReverse() error {
	if p.Status == PostingStatusReversed || p.SourceKind == SourceReversal {
		return ErrAlreadyReversed
	}
	for _, e := range p.Entries {
		if e.Status == EntryStatusCleared {
			return ErrEntryCleared
		}
	}
	return nil
}

// HasLockedEntries reports whether any entry of p sits in a closed period.
func (p *Posting) HasLockedEntries() bool {
	for _, e := range p.Entries {
		if e.IsLocked {
			return true
		}
	}
	return false
}
