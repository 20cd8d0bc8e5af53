package domain

import "github.com/shopspring/decimal"

// Movement is the total of posted entries of one owner in one period grouped
// by entry kind and source kind.
type Movement struct {
	Kind       EntryKind
	SourceKind SourceKind
	Inflow     decimal.Decimal
	Outflow    decimal.Decimal
}

// MonthlySummary is the period-close report for one owner.
type MonthlySummary struct {
	Owner  Owner  `json:"owner"`
	Period string `json:"period"`

	CashIn        decimal.Decimal `json:"cash_in"`
	CashOut       decimal.Decimal `json:"cash_out"`
	ReceivableNet decimal.Decimal `json:"receivable_net"`
	PayableNet    decimal.Decimal `json:"payable_net"`

	Contributions decimal.Decimal `json:"contributions"`
	Expenditures  decimal.Decimal `json:"expenditures"`
	Remittances   decimal.Decimal `json:"remittances"`
	Commissions   decimal.Decimal `json:"commissions"`
	Donations     decimal.Decimal `json:"donations"`

	EntryCount int64 `json:"entry_count"`
}

// Summarize folds movements into a monthly summary.
//
// Source totals are measured on CASH: contributions and donations by what came
// in, expenditures and commissions by what went out, and remittances by the
// absolute cash moved whether the owner sent or received them. Reversal
// offsets only affect the CASH/RECEIVABLE/PAYABLE nets.
func Summarize(owner Owner, period Period, movements []Movement, entryCount int64) *MonthlySummary {
	s := &MonthlySummary{
		Owner:         owner,
		Period:        period.String(),
		CashIn:        decimal.Zero,
		CashOut:       decimal.Zero,
		ReceivableNet: decimal.Zero,
		PayableNet:    decimal.Zero,
		Contributions: decimal.Zero,
		Expenditures:  decimal.Zero,
		Remittances:   decimal.Zero,
		Commissions:   decimal.Zero,
		Donations:     decimal.Zero,
		EntryCount:    entryCount,
	}

	for _, m := range movements {
		net := m.Inflow.Sub(m.Outflow)

		switch m.Kind {
		case EntryKindReceivable:
			s.ReceivableNet = s.ReceivableNet.Add(net)
			continue
		case EntryKindPayable:
			s.PayableNet = s.PayableNet.Add(net)
			continue
		}

		s.CashIn = s.CashIn.Add(m.Inflow)
		s.CashOut = s.CashOut.Add(m.Outflow)

		switch m.SourceKind {
		case SourceContribution:
			s.Contributions = s.Contributions.Add(net)
		case SourceExpenditure:
			s.Expenditures = s.Expenditures.Sub(net)
		case SourceRemittance:
			s.Remittances = s.Remittances.Add(m.Inflow).Add(m.Outflow)
		case SourceCommission:
			s.Commissions = s.Commissions.Sub(net)
		case SourceDonation:
			s.Donations = s.Donations.Add(net)
		}
	}

	return s
}

// Position is the full balance picture of an owner at a date.
type Position struct {
	Owner      Owner           `json:"owner"`
	Cash       decimal.Decimal `json:"cash"`
	Receivable decimal.Decimal `json:"receivable"`
	Payable    decimal.Decimal `json:"payable"`
	Spendable  decimal.Decimal `json:"spendable"`
}

// Spendable applies the spending rule: Mission may spend its CASH only, every
// other owner may spend CASH less what it owes upward. RECEIVABLE never counts.
func Spendable(owner Owner, cash, payable decimal.Decimal) decimal.Decimal {
	if owner.IsMission() {
		return cash
	}
	return cash.Sub(payable)
}

// PairBalance compares what creditor records as owed by debtor with what
// debtor records as owing. The two sides always agree in a consistent ledger.
type PairBalance struct {
	Creditor   Owner           `json:"creditor"`
	Debtor     Owner           `json:"debtor"`
	Receivable decimal.Decimal `json:"receivable"`
	Payable    decimal.Decimal `json:"payable"`
}

// Matched reports whether both sides agree.
func (p PairBalance) Matched() bool {
	return p.Receivable.Equal(p.Payable)
}
