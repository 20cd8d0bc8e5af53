package domain

import (
	"fmt"
	"time"
)

// Period is a calendar month used for closing and summaries.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod validates and builds a period.
func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Validate checks month and year bounds.
func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, int(p.Month))
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Start returns the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Contains reports whether the accounting date of t falls in p.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// Before reports whether p is earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Next returns the following period.
func (p Period) Next() Period {
	return PeriodOf(p.Start().AddDate(0, 1, 0))
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// DateOf truncates t to its calendar date in UTC. Entry dates carry no time of day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OwnerPeriod identifies the unit that closes: one owner, one month.
type OwnerPeriod struct {
	Owner  Owner
	Period Period
}

// PeriodStatus is the close state of an owner period.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// ValidatePeriodTransition checks OPEN -> CLOSED and CLOSED -> OPEN.
func ValidatePeriodTransition(current, target PeriodStatus) error {
	switch {
	case current == PeriodStatusOpen && target == PeriodStatusClosed:
		return nil
	case current == PeriodStatusClosed && target == PeriodStatusOpen:
		return nil
	case current == PeriodStatusClosed && target == PeriodStatusClosed:
		return ErrPeriodAlreadyClosed
	case current == PeriodStatusOpen && target == PeriodStatusOpen:
		return ErrPeriodNotClosed
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidPeriod, current, target)
}

// PeriodClose records the close state of one owner period. A period without a
// record is OPEN.
type PeriodClose struct {
	UpdatedAt   time.Time
	ClosedAt    *time.Time
	ReopenedAt  *time.Time
	Summary     *MonthlySummary
	ClosedBy    string
	ReopenedBy  string
	Status      PeriodStatus
	Owner       Owner
	Period      Period
	LockedCount int64
}

// IsClosed reports whether writes into the period must be refused.
func (c *PeriodClose) IsClosed() bool {
	return c != nil && c.Status == PeriodStatusClosed
}
