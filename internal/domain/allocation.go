package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Allocation is the percentage split of a contribution across hierarchy levels.
type Allocation struct {
	Mission  decimal.Decimal `json:"mission"`
	Area     decimal.Decimal `json:"area"`
	District decimal.Decimal `json:"district"`
	Branch   decimal.Decimal `json:"branch"`
}

// Validate checks that no share is negative and the shares sum to 100.
func (a Allocation) Validate() error {
	for _, s := range []struct {
		name string
		pct  decimal.Decimal
	}{
		{"mission", a.Mission},
		{"area", a.Area},
		{"district", a.District},
		{"branch", a.Branch},
	} {
		if s.pct.IsNegative() {
			return fmt.Errorf("%w: %s share is negative", ErrInvalidAllocation, s.name)
		}
	}

	total := a.Mission.Add(a.Area).Add(a.District).Add(a.Branch)
	if !total.Equal(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidAllocation, total.String())
	}
	return nil
}

// Shares is an amount split according to an allocation.
type Shares struct {
	Mission  decimal.Decimal
	Area     decimal.Decimal
	District decimal.Decimal
	Branch   decimal.Decimal
}

// Split divides amount into cent shares. Upper-level shares are rounded
// down and the residue stays with the branch, so the shares add up to amount
// exactly and the branch never owes more than it collected.
func (a Allocation) Split(amount decimal.Decimal) Shares {
	share := func(pct decimal.Decimal) decimal.Decimal {
		return amount.Mul(pct).Div(hundred).RoundDown(2)
	}

	s := Shares{
		Mission:  share(a.Mission),
		Area:     share(a.Area),
		District: share(a.District),
	}
	s.Branch = amount.Sub(s.Mission).Sub(s.Area).Sub(s.District)
	return s
}
