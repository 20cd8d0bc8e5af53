package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/usecase"
)

// DateLayout is the wire format of every calendar date.
const DateLayout = "2006-01-02"

// AllocationRequest is the percentage split of a contribution.
type AllocationRequest struct {
	Mission  decimal.Decimal `json:"mission"`
	Area     decimal.Decimal `json:"area"`
	District decimal.Decimal `json:"district"`
	Branch   decimal.Decimal `json:"branch"`
}

// ContributionRequest represents a verified contribution at a branch.
type ContributionRequest struct {
	SourceID   string            `json:"source_id" validate:"required,max=128"`
	Date       string            `json:"date" validate:"required,datetime=2006-01-02"`
	Amount     decimal.Decimal   `json:"amount"`
	BranchID   string            `json:"branch_id" validate:"required,max=64"`
	AreaID     string            `json:"area_id,omitempty" validate:"omitempty,max=64"`
	DistrictID string            `json:"district_id,omitempty" validate:"omitempty,max=64"`
	Allocation AllocationRequest `json:"allocation"`
}

// ToEvent converts to a domain event.
func (r *ContributionRequest) ToEvent() (domain.ContributionEvent, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return domain.ContributionEvent{}, err
	}
	return domain.ContributionEvent{
		SourceID:   r.SourceID,
		Date:       date,
		Amount:     r.Amount,
		BranchID:   r.BranchID,
		AreaID:     r.AreaID,
		DistrictID: r.DistrictID,
		Allocation: domain.Allocation{
			Mission:  r.Allocation.Mission,
			Area:     r.Allocation.Area,
			District: r.Allocation.District,
			Branch:   r.Allocation.Branch,
		},
	}, nil
}

// RemittanceRequest represents cash sent upward by a branch. An empty
// recipient means the Mission.
type RemittanceRequest struct {
	SourceID    string          `json:"source_id" validate:"required,max=128"`
	PaymentDate string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Year        int             `json:"year" validate:"required,gte=1900,lte=9999"`
	Month       int             `json:"month" validate:"required,gte=1,lte=12"`
	Amount      decimal.Decimal `json:"amount"`
	BranchID    string          `json:"branch_id" validate:"required,max=64"`
	Recipient   string          `json:"recipient,omitempty" validate:"omitempty,owner"`
}

// ToEvent converts to a domain event.
func (r *RemittanceRequest) ToEvent() (domain.RemittanceEvent, error) {
	date, err := ParseDate(r.PaymentDate)
	if err != nil {
		return domain.RemittanceEvent{}, err
	}
	period, err := domain.NewPeriod(r.Year, r.Month)
	if err != nil {
		return domain.RemittanceEvent{}, err
	}
	recipient, err := parseOptionalOwner(r.Recipient)
	if err != nil {
		return domain.RemittanceEvent{}, err
	}
	return domain.RemittanceEvent{
		SourceID:    r.SourceID,
		PaymentDate: date,
		Period:      period,
		Amount:      r.Amount,
		BranchID:    r.BranchID,
		Recipient:   recipient,
	}, nil
}

// ExpenditureRequest represents cash spent by an owner.
type ExpenditureRequest struct {
	SourceID    string          `json:"source_id" validate:"required,max=128"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount      decimal.Decimal `json:"amount"`
	Owner       string          `json:"owner" validate:"required,owner"`
	Description string          `json:"description,omitempty" validate:"max=500"`
}

// ToEvent converts to a domain event.
func (r *ExpenditureRequest) ToEvent() (domain.ExpenditureEvent, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return domain.ExpenditureEvent{}, err
	}
	owner, err := domain.ParseOwner(r.Owner)
	if err != nil {
		return domain.ExpenditureEvent{}, err
	}
	return domain.ExpenditureEvent{
		SourceID:    r.SourceID,
		Date:        date,
		Amount:      r.Amount,
		Owner:       owner,
		Description: r.Description,
	}, nil
}

// CommissionRequest represents a payout from Mission cash.
type CommissionRequest struct {
	SourceID    string          `json:"source_id" validate:"required,max=128"`
	PaidDate    string          `json:"paid_date" validate:"required,datetime=2006-01-02"`
	Amount      decimal.Decimal `json:"amount"`
	RecipientID string          `json:"recipient_id" validate:"required,max=128"`
}

// ToEvent converts to a domain event.
func (r *CommissionRequest) ToEvent() (domain.CommissionEvent, error) {
	date, err := ParseDate(r.PaidDate)
	if err != nil {
		return domain.CommissionEvent{}, err
	}
	return domain.CommissionEvent{
		SourceID:    r.SourceID,
		PaidDate:    date,
		Amount:      r.Amount,
		RecipientID: r.RecipientID,
	}, nil
}

// DonationRequest represents money given directly to the Mission.
type DonationRequest struct {
	SourceID string          `json:"source_id" validate:"required,max=128"`
	Date     string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount   decimal.Decimal `json:"amount"`
	Donor    string          `json:"donor,omitempty" validate:"max=200"`
}

// ToEvent converts to a domain event.
func (r *DonationRequest) ToEvent() (domain.DonationEvent, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return domain.DonationEvent{}, err
	}
	return domain.DonationEvent{
		SourceID: r.SourceID,
		Date:     date,
		Amount:   r.Amount,
		Donor:    r.Donor,
	}, nil
}

// BalanceRequest seeds or corrects one balance. Opening balances and
// adjustments share it.
type BalanceRequest struct {
	SourceID     string          `json:"source_id" validate:"required,max=128"`
	Date         string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         string          `json:"entry_kind" validate:"required,oneof=CASH RECEIVABLE PAYABLE"`
	Owner        string          `json:"owner" validate:"required,owner"`
	Counterparty string          `json:"counterparty,omitempty" validate:"omitempty,owner"`
	Reason       string          `json:"reason,omitempty" validate:"max=500"`
}

// ToEvent converts to a domain event.
func (r *BalanceRequest) ToEvent() (domain.BalanceEvent, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return domain.BalanceEvent{}, err
	}
	owner, err := domain.ParseOwner(r.Owner)
	if err != nil {
		return domain.BalanceEvent{}, err
	}
	counterparty, err := parseOptionalOwner(r.Counterparty)
	if err != nil {
		return domain.BalanceEvent{}, err
	}
	return domain.BalanceEvent{
		SourceID:     r.SourceID,
		Date:         date,
		Amount:       r.Amount,
		Kind:         domain.EntryKind(r.Kind),
		Owner:        owner,
		Counterparty: counterparty,
		Reason:       r.Reason,
	}, nil
}

// ReversePostingRequest represents a request to reverse a posting. An empty
// date reverses as of today.
type ReversePostingRequest struct {
	Date   string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// ToUseCaseInput converts to use case input.
func (r *ReversePostingRequest) ToUseCaseInput(postingID string) (usecase.ReversePostingInput, error) {
	input := usecase.ReversePostingInput{PostingID: postingID, Reason: r.Reason}
	if r.Date != "" {
		date, err := ParseDate(r.Date)
		if err != nil {
			return usecase.ReversePostingInput{}, err
		}
		input.Date = date
	}
	return input, nil
}

// PeriodActionRequest names who closes or reopens a period.
type PeriodActionRequest struct {
	Actor string `json:"actor" validate:"required,max=128"`
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func parseOptionalOwner(s string) (domain.Owner, error) {
	if s == "" {
		return domain.Owner{}, nil
	}
	return domain.ParseOwner(s)
}
