package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind is the balance an entry moves.
type EntryKind string

const (
	// EntryKindCash is money physically held by the owner.
	EntryKindCash EntryKind = "CASH"
	// EntryKindReceivable is money owed to the owner by the counterparty.
	EntryKindReceivable EntryKind = "RECEIVABLE"
	// EntryKindPayable is money owed by the owner to the counterparty.
	EntryKindPayable EntryKind = "PAYABLE"
)

// IsValid reports whether k is a known entry kind.
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindCash, EntryKindReceivable, EntryKindPayable:
		return true
	}
	return false
}

// NeedsCounterparty reports whether entries of this kind must name a counterparty.
func (k EntryKind) NeedsCounterparty() bool {
	return k == EntryKindReceivable || k == EntryKindPayable
}

// EntryStatus is the lifecycle state of an entry.
type EntryStatus string

const (
	EntryStatusActive   EntryStatus = "ACTIVE"
	EntryStatusReversed EntryStatus = "REVERSED"
	EntryStatusCleared  EntryStatus = "CLEARED"
)

// Posted reports whether entries in this status count towards balances.
// Cleared entries stay in balances: a cleared set always nets to zero.
func (s EntryStatus) Posted() bool {
	return s == EntryStatusActive || s == EntryStatusCleared
}

// PostedStatuses lists the statuses aggregated by balance queries.
var PostedStatuses = []EntryStatus{EntryStatusActive, EntryStatusCleared}

// SourceKind names the business event that produced an entry.
type SourceKind string

const (
	SourceContribution   SourceKind = "CONTRIBUTION"
	SourceRemittance     SourceKind = "REMITTANCE"
	SourceExpenditure    SourceKind = "EXPENDITURE"
	SourceCommission     SourceKind = "COMMISSION"
	SourceDonation       SourceKind = "DONATION"
	SourceOpeningBalance SourceKind = "OPENING_BALANCE"
	SourceAdjustment     SourceKind = "ADJUSTMENT"
	SourceReversal       SourceKind = "REVERSAL"
)

// IsValid reports whether k is a known source kind.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceContribution, SourceRemittance, SourceExpenditure, SourceCommission,
		SourceDonation, SourceOpeningBalance, SourceAdjustment, SourceReversal:
		return true
	}
	return false
}

// Entry is a single signed movement of one balance of one owner.
type Entry struct {
	CreatedAt       time.Time
	EntryDate       time.Time
	ReversedBy      *string
	ID              string
	PostingID       string
	SourceReference string
	Kind            EntryKind
	SourceKind      SourceKind
	Status          EntryStatus
	Owner           Owner
	Counterparty    Owner
	Amount          decimal.Decimal
	Leg             int
	IsLocked        bool
}
