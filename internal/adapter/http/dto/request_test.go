package dto

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
)

func TestContributionRequest_ToEvent(t *testing.T) {
	var req ContributionRequest
	body := `{
		"source_id": "C-1",
		"date": "2024-06-15",
		"amount": "1000.00",
		"branch_id": "B1",
		"area_id": "A1",
		"district_id": "D1",
		"allocation": {"mission": "40", "area": "10", "district": "10", "branch": "40"}
	}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := Validate(&req); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	ev, err := req.ToEvent()
	if err != nil {
		t.Fatalf("ToEvent() error = %v", err)
	}
	if !ev.Date.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %s", ev.Date)
	}
	if !ev.Amount.Equal(decimal.RequireFromString("1000")) || !ev.Allocation.Mission.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.BranchID != "B1" || ev.AreaID != "A1" || ev.DistrictID != "D1" {
		t.Fatalf("hierarchy not carried: %+v", ev)
	}
}

func TestRemittanceRequest_ToEvent(t *testing.T) {
	tests := []struct {
		name          string
		request       RemittanceRequest
		wantRecipient domain.Owner
		wantErr       error
	}{
		{
			name:          "defaults to mission",
			request:       RemittanceRequest{SourceID: "R-1", PaymentDate: "2024-07-02", Year: 2024, Month: 6, Amount: decimal.NewFromInt(400), BranchID: "B1"},
			wantRecipient: domain.Owner{},
		},
		{
			name:          "explicit district",
			request:       RemittanceRequest{SourceID: "R-2", PaymentDate: "2024-07-02", Year: 2024, Month: 6, Amount: decimal.NewFromInt(100), BranchID: "B1", Recipient: "district:D1"},
			wantRecipient: domain.District("D1"),
		},
		{
			name:    "bad month",
			request: RemittanceRequest{SourceID: "R-3", PaymentDate: "2024-07-02", Year: 2024, Month: 13, Amount: decimal.NewFromInt(1), BranchID: "B1"},
			wantErr: domain.ErrInvalidPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := tt.request.ToEvent()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToEvent() error = %v", err)
			}
			if ev.Recipient != tt.wantRecipient {
				t.Fatalf("recipient = %q, want %q", ev.Recipient, tt.wantRecipient)
			}
			if ev.Period.String() != "2024-06" {
				t.Fatalf("period = %s", ev.Period)
			}
		})
	}
}

func TestBalanceRequest_ToEvent(t *testing.T) {
	req := BalanceRequest{
		SourceID:     "OB-1",
		Date:         "2024-01-01",
		Amount:       decimal.NewFromInt(250),
		Kind:         "RECEIVABLE",
		Owner:        "mission",
		Counterparty: "branch:B1",
		Reason:       "carried forward",
	}
	if err := Validate(&req); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	ev, err := req.ToEvent()
	if err != nil {
		t.Fatalf("ToEvent() error = %v", err)
	}
	if ev.Kind != domain.EntryKindReceivable || ev.Owner != domain.Mission() || ev.Counterparty != domain.Branch("B1") {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestReversePostingRequest_ToUseCaseInput(t *testing.T) {
	req := ReversePostingRequest{Reason: "entered twice"}
	in, err := req.ToUseCaseInput("p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.PostingID != "p-1" || !in.Date.IsZero() {
		t.Fatalf("unexpected input %+v", in)
	}

	req.Date = "2024-06-30"
	in, err = req.ToUseCaseInput("p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Date.Day() != 30 {
		t.Fatalf("date not parsed: %s", in.Date)
	}
}

func TestValidate_ReportsFields(t *testing.T) {
	tests := []struct {
		name      string
		request   any
		wantField string
		wantRule  string
	}{
		{
			name:      "missing source",
			request:   &DonationRequest{Date: "2024-06-01", Amount: decimal.NewFromInt(5)},
			wantField: "source_id",
			wantRule:  "required",
		},
		{
			name:      "bad date",
			request:   &DonationRequest{SourceID: "D-1", Date: "06/01/2024", Amount: decimal.NewFromInt(5)},
			wantField: "date",
			wantRule:  "datetime=2006-01-02",
		},
		{
			name:      "bad owner",
			request:   &ExpenditureRequest{SourceID: "E-1", Date: "2024-06-01", Amount: decimal.NewFromInt(5), Owner: "church:1"},
			wantField: "owner",
			wantRule:  "owner",
		},
		{
			name:      "bad entry kind",
			request:   &BalanceRequest{SourceID: "OB-1", Date: "2024-06-01", Kind: "EQUITY", Owner: "mission"},
			wantField: "entry_kind",
			wantRule:  "oneof=CASH RECEIVABLE PAYABLE",
		},
		{
			name:      "missing actor",
			request:   &PeriodActionRequest{},
			wantField: "actor",
			wantRule:  "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.request)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if got := verr.Fields[tt.wantField]; got != tt.wantRule {
				t.Fatalf("field %s rule = %q, want %q (all: %v)", tt.wantField, got, tt.wantRule, verr.Fields)
			}
		})
	}
}
