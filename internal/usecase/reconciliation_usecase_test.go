package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
)

func TestReconciliationUseCase_Reconcile(t *testing.T) {
	matched := domain.PairBalance{
		Creditor:   domain.Mission(),
		Debtor:     domain.Branch("B1"),
		Receivable: decimal.NewFromInt(200),
		Payable:    decimal.NewFromInt(200),
	}
	drifted := domain.PairBalance{
		Creditor:   domain.Area("A1"),
		Debtor:     domain.Branch("B1"),
		Receivable: decimal.NewFromInt(100),
		Payable:    decimal.NewFromInt(90),
	}

	tests := []struct {
		name           string
		pairs          []domain.PairBalance
		wantMismatched int
		wantReconciled bool
	}{
		{name: "empty ledger", wantReconciled: true},
		{name: "all pairs agree", pairs: []domain.PairBalance{matched}, wantReconciled: true},
		{name: "one pair drifted", pairs: []domain.PairBalance{matched, drifted}, wantMismatched: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewReconciliationUseCase(&fakeLedgerRepository{pairs: tt.pairs})
			fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
			uc.now = func() time.Time { return fixed }

			report, err := uc.Reconcile(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if report.IsReconciled != tt.wantReconciled {
				t.Fatalf("IsReconciled = %v, want %v", report.IsReconciled, tt.wantReconciled)
			}
			if len(report.Mismatched) != tt.wantMismatched {
				t.Fatalf("expected %d mismatched pairs, got %d", tt.wantMismatched, len(report.Mismatched))
			}
			if len(report.Pairs) != len(tt.pairs) {
				t.Fatalf("expected %d pairs, got %d", len(tt.pairs), len(report.Pairs))
			}
			if !report.CheckedAt.Equal(fixed) {
				t.Fatalf("unexpected CheckedAt %s", report.CheckedAt)
			}
		})
	}
}

func TestReconciliationUseCase_ReconcileRepoError(t *testing.T) {
	uc := NewReconciliationUseCase(&fakeLedgerRepository{err: errors.New("db down")})

	if _, err := uc.Reconcile(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestReconciliationUseCase_CheckLedgerConsistency(t *testing.T) {
	uc := NewReconciliationUseCase(&fakeLedgerRepository{
		totalReceivable: decimal.NewFromInt(300),
		totalPayable:    decimal.NewFromInt(290),
	})

	err := uc.CheckLedgerConsistency(context.Background())
	if !errors.Is(err, ErrInconsistentLedger) {
		t.Fatalf("expected ErrInconsistentLedger, got %v", err)
	}
	if !strings.Contains(err.Error(), "difference=10") {
		t.Fatalf("expected difference in message, got %v", err)
	}

	balanced := NewReconciliationUseCase(&fakeLedgerRepository{
		totalReceivable: decimal.NewFromInt(300),
		totalPayable:    decimal.NewFromInt(300),
	})
	if err := balanced.CheckLedgerConsistency(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
