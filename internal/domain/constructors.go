package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ContributionEvent is a verified collection at a branch.
type ContributionEvent struct {
	Date       time.Time
	Allocation Allocation
	Amount     decimal.Decimal
	SourceID   string
	BranchID   string
	AreaID     string
	DistrictID string
}

// RemittanceEvent is cash sent by a branch to settle what it owes upward.
// A zero Recipient means the Mission.
type RemittanceEvent struct {
	PaymentDate time.Time
	Period      Period
	Amount      decimal.Decimal
	SourceID    string
	BranchID    string
	Recipient   Owner
}

// ExpenditureEvent is cash spent by an owner.
type ExpenditureEvent struct {
	Date        time.Time
	Amount      decimal.Decimal
	SourceID    string
	Description string
	Owner       Owner
}

// CommissionEvent is a payout from Mission cash to a recipient.
type CommissionEvent struct {
	PaidDate    time.Time
	Amount      decimal.Decimal
	SourceID    string
	RecipientID string
}

// DonationEvent is money given directly to the Mission.
type DonationEvent struct {
	Date     time.Time
	Amount   decimal.Decimal
	SourceID string
	Donor    string
}

// BalanceEvent seeds or corrects a single balance. RECEIVABLE and PAYABLE
// balances need a counterparty, whose opposite side is written as well.
type BalanceEvent struct {
	Date         time.Time
	Amount       decimal.Decimal
	SourceID     string
	Reason       string
	Kind         EntryKind
	Owner        Owner
	Counterparty Owner
}

type bundle struct {
	p *Posting
}

func newBundle(kind SourceKind, ref string, date time.Time) *bundle {
	return &bundle{p: &Posting{
		EventDate:       DateOf(date),
		SourceKind:      kind,
		SourceReference: ref,
		Status:          PostingStatusActive,
		Metadata:        map[string]any{},
	}}
}

func (b *bundle) add(kind EntryKind, owner, counterparty Owner, amount decimal.Decimal) {
	b.p.Entries = append(b.p.Entries, &Entry{
		Leg:             len(b.p.Entries),
		Kind:            kind,
		Owner:           owner,
		Counterparty:    counterparty,
		Amount:          amount,
		SourceKind:      b.p.SourceKind,
		SourceReference: b.p.SourceReference,
		EntryDate:       b.p.EventDate,
		Status:          EntryStatusActive,
	})
}

// owe records that debtor owes creditor amount: creditor RECEIVABLE and debtor
// PAYABLE move together.
func (b *bundle) owe(creditor, debtor Owner, amount decimal.Decimal) {
	b.add(EntryKindReceivable, creditor, debtor, amount)
	b.add(EntryKindPayable, debtor, creditor, amount)
}

func (b *bundle) done() (*Posting, error) {
	if err := b.p.Validate(); err != nil {
		return nil, err
	}
	return b.p, nil
}

func checkEvent(ref string, date time.Time, amount decimal.Decimal) error {
	if err := ValidateSourceReference(ref); err != nil {
		return err
	}
	if date.IsZero() {
		return ErrMissingDate
	}
	return ValidateAmount(amount)
}

// BuildContribution credits the branch with the full amount in CASH and, for
// every upper level with a nonzero share, records that level's share as owed
// by the branch.
func BuildContribution(ev ContributionEvent) (*Posting, error) {
	if err := checkEvent(ev.SourceID, ev.Date, ev.Amount); err != nil {
		return nil, err
	}
	if err := ev.Allocation.Validate(); err != nil {
		return nil, err
	}

	branch, err := NewOwner(OwnerKindBranch, ev.BranchID)
	if err != nil {
		return nil, err
	}

	shares := ev.Allocation.Split(ev.Amount)

	b := newBundle(SourceContribution, ev.SourceID, ev.Date)
	b.add(EntryKindCash, branch, Owner{}, ev.Amount)

	if shares.Mission.IsPositive() {
		b.owe(Mission(), branch, shares.Mission)
	}
	if shares.Area.IsPositive() {
		area, err := levelOwner(OwnerKindArea, ev.AreaID)
		if err != nil {
			return nil, err
		}
		b.owe(area, branch, shares.Area)
	}
	if shares.District.IsPositive() {
		district, err := levelOwner(OwnerKindDistrict, ev.DistrictID)
		if err != nil {
			return nil, err
		}
		b.owe(district, branch, shares.District)
	}

	b.p.Metadata["branch_share"] = shares.Branch.StringFixed(2)
	return b.done()
}

func levelOwner(kind OwnerKind, id string) (Owner, error) {
	if id == "" {
		return Owner{}, fmt.Errorf("%w: %s", ErrMissingHierarchy, kind)
	}
	return NewOwner(kind, id)
}

// BuildRemittance moves cash from the branch to the recipient and settles the
// same amount of the branch's payable and the recipient's receivable.
func BuildRemittance(ev RemittanceEvent) (*Posting, error) {
	if err := checkEvent(ev.SourceID, ev.PaymentDate, ev.Amount); err != nil {
		return nil, err
	}
	if err := ev.Period.Validate(); err != nil {
		return nil, err
	}

	branch, err := NewOwner(OwnerKindBranch, ev.BranchID)
	if err != nil {
		return nil, err
	}
	recipient, err := RemittanceRecipient(ev.Recipient)
	if err != nil {
		return nil, err
	}

	b := newBundle(SourceRemittance, ev.SourceID, ev.PaymentDate)
	b.add(EntryKindCash, branch, Owner{}, ev.Amount.Neg())
	b.add(EntryKindPayable, branch, recipient, ev.Amount.Neg())
	b.add(EntryKindReceivable, recipient, branch, ev.Amount.Neg())
	b.add(EntryKindCash, recipient, Owner{}, ev.Amount)

	b.p.Metadata["period"] = ev.Period.String()
	return b.done()
}

// RemittanceRecipient resolves the recipient of a remittance; Mission when unset.
func RemittanceRecipient(o Owner) (Owner, error) {
	if o.IsZero() {
		return Mission(), nil
	}
	switch o.Kind() {
	case OwnerKindMission, OwnerKindArea, OwnerKindDistrict:
		return o, o.Validate()
	}
	return Owner{}, fmt.Errorf("%w: %s cannot receive remittances", ErrInvalidOwner, o)
}

// BuildExpenditure spends cash the owner physically holds.
func BuildExpenditure(ev ExpenditureEvent) (*Posting, error) {
	if err := checkEvent(ev.SourceID, ev.Date, ev.Amount); err != nil {
		return nil, err
	}
	if err := ev.Owner.Validate(); err != nil {
		return nil, err
	}
	if ev.Owner.Kind() == OwnerKindMember {
		return nil, fmt.Errorf("%w: members do not hold cash", ErrInvalidOwner)
	}

	b := newBundle(SourceExpenditure, ev.SourceID, ev.Date)
	b.add(EntryKindCash, ev.Owner, Owner{}, ev.Amount.Neg())
	if ev.Description != "" {
		b.p.Metadata["description"] = ev.Description
	}
	return b.done()
}

// BuildCommission pays a commission out of Mission cash.
func BuildCommission(ev CommissionEvent) (*Posting, error) {
	if err := checkEvent(ev.SourceID, ev.PaidDate, ev.Amount); err != nil {
		return nil, err
	}
	if ev.RecipientID == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidOwner)
	}

	b := newBundle(SourceCommission, ev.SourceID, ev.PaidDate)
	b.add(EntryKindCash, Mission(), Owner{}, ev.Amount.Neg())
	b.p.Metadata["recipient_id"] = ev.RecipientID
	return b.done()
}

// BuildDonation credits Mission cash directly.
func BuildDonation(ev DonationEvent) (*Posting, error) {
	if err := checkEvent(ev.SourceID, ev.Date, ev.Amount); err != nil {
		return nil, err
	}

	b := newBundle(SourceDonation, ev.SourceID, ev.Date)
	b.add(EntryKindCash, Mission(), Owner{}, ev.Amount)
	if ev.Donor != "" {
		b.p.Metadata["donor"] = ev.Donor
	}
	return b.done()
}

// BuildOpeningBalance seeds a balance carried over from before the ledger.
func BuildOpeningBalance(ev BalanceEvent) (*Posting, error) {
	return buildBalance(SourceOpeningBalance, ev)
}

// BuildAdjustment records a manual correction with a signed amount.
func BuildAdjustment(ev BalanceEvent) (*Posting, error) {
	if ev.Reason == "" {
		return nil, fmt.Errorf("%w: adjustment needs a reason", ErrMissingSource)
	}
	return buildBalance(SourceAdjustment, ev)
}

func buildBalance(kind SourceKind, ev BalanceEvent) (*Posting, error) {
	if err := ValidateSourceReference(ev.SourceID); err != nil {
		return nil, err
	}
	if ev.Date.IsZero() {
		return nil, ErrMissingDate
	}
	if err := ValidateSignedAmount(ev.Amount); err != nil {
		return nil, err
	}
	if !ev.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntryKind, ev.Kind)
	}
	if err := ev.Owner.Validate(); err != nil {
		return nil, err
	}

	b := newBundle(kind, ev.SourceID, ev.Date)
	switch ev.Kind {
	case EntryKindCash:
		if !ev.Counterparty.IsZero() {
			return nil, fmt.Errorf("%w: cash takes no counterparty", ErrInvalidOwner)
		}
		b.add(EntryKindCash, ev.Owner, Owner{}, ev.Amount)
	case EntryKindReceivable:
		if ev.Counterparty.IsZero() {
			return nil, fmt.Errorf("%w: receivable needs a counterparty", ErrInvalidOwner)
		}
		b.owe(ev.Owner, ev.Counterparty, ev.Amount)
	case EntryKindPayable:
		if ev.Counterparty.IsZero() {
			return nil, fmt.Errorf("%w: payable needs a counterparty", ErrInvalidOwner)
		}
		b.owe(ev.Counterparty, ev.Owner, ev.Amount)
	}

	if ev.Reason != "" {
		b.p.Metadata["reason"] = ev.Reason
	}
	return b.done()
}
