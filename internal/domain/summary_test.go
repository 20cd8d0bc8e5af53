package domain

import (
	"testing"
	"time"
)

func TestAllocation_Split(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		allocation Allocation
		mission    string
		area       string
		district   string
		branch     string
	}{
		{
			name:       "residue to branch",
			amount:     "33.33",
			allocation: standardAllocation(),
			mission:    "6.66",
			area:       "3.33",
			district:   "3.33",
			branch:     "20.01",
		},
		{
			name:       "single cent split upward",
			amount:     "0.01",
			allocation: Allocation{Mission: dec("50"), Area: dec("50"), District: dec("0"), Branch: dec("0")},
			mission:    "0",
			area:       "0",
			district:   "0",
			branch:     "0.01",
		},
		{
			name:       "half cents on every level",
			amount:     "1.00",
			allocation: Allocation{Mission: dec("33.5"), Area: dec("33.5"), District: dec("33"), Branch: dec("0")},
			mission:    "0.33",
			area:       "0.33",
			district:   "0.33",
			branch:     "0.01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := tt.allocation.Split(dec(tt.amount))

			if !shares.Mission.Equal(dec(tt.mission)) || !shares.Area.Equal(dec(tt.area)) ||
				!shares.District.Equal(dec(tt.district)) || !shares.Branch.Equal(dec(tt.branch)) {
				t.Fatalf("unexpected shares %+v", shares)
			}
			if shares.Branch.IsNegative() {
				t.Fatalf("branch share %s is negative", shares.Branch)
			}
			total := shares.Mission.Add(shares.Area).Add(shares.District).Add(shares.Branch)
			if !total.Equal(dec(tt.amount)) {
				t.Fatalf("shares add up to %s", total)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	movements := []Movement{
		{Kind: EntryKindCash, SourceKind: SourceContribution, Inflow: dec("100"), Outflow: dec("0")},
		{Kind: EntryKindPayable, SourceKind: SourceContribution, Inflow: dec("40"), Outflow: dec("0")},
		{Kind: EntryKindCash, SourceKind: SourceExpenditure, Inflow: dec("0"), Outflow: dec("25")},
		{Kind: EntryKindCash, SourceKind: SourceRemittance, Inflow: dec("0"), Outflow: dec("30")},
		{Kind: EntryKindPayable, SourceKind: SourceRemittance, Inflow: dec("0"), Outflow: dec("30")},
	}

	s := Summarize(Branch("B"), Period{Year: 2024, Month: time.June}, movements, 7)

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"cash in", s.CashIn.String(), "100"},
		{"cash out", s.CashOut.String(), "55"},
		{"payable net", s.PayableNet.String(), "10"},
		{"receivable net", s.ReceivableNet.String(), "0"},
		{"contributions", s.Contributions.String(), "100"},
		{"expenditures", s.Expenditures.String(), "25"},
		{"remittances", s.Remittances.String(), "30"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s: expected %s, got %s", c.name, c.want, c.got)
		}
	}
	if s.Period != "2024-06" || s.EntryCount != 7 {
		t.Fatalf("unexpected header %+v", s)
	}
}

func TestSpendable(t *testing.T) {
	if got := Spendable(Mission(), dec("0"), dec("1000")); !got.IsZero() {
		t.Fatalf("mission spendable ignores payables, got %s", got)
	}
	if got := Spendable(Branch("B"), dec("1000"), dec("400")); !got.Equal(dec("600")) {
		t.Fatalf("expected 600, got %s", got)
	}
}
