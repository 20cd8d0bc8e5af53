package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/usecase"
)

func TestPeriodUseCase_CloseLocksAndSnapshots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	june := domain.PeriodOf(june15)

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.posting.PostExpenditure(ctx, domain.ExpenditureEvent{SourceID: "E-1", Date: june15, Amount: dec("150"), Owner: branchB}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.posting.PostContribution(ctx, tithe("C-2", "10", july10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pc, err := f.period.ClosePeriod(ctx, usecase.PeriodInput{Owner: branchB, Period: june, Actor: "treasurer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pc.Status != domain.PeriodStatusClosed || pc.ClosedBy != "treasurer" || pc.ClosedAt == nil {
		t.Fatalf("unexpected close record %+v", pc)
	}
	if pc.LockedCount != 5 {
		t.Fatalf("expected 5 branch entries locked, got %d", pc.LockedCount)
	}

	s := pc.Summary
	if s == nil {
		t.Fatalf("expected a summary snapshot")
	}
	if !s.Contributions.Equal(dec("1000")) || !s.Expenditures.Equal(dec("150")) {
		t.Fatalf("unexpected totals contributions=%s expenditures=%s", s.Contributions, s.Expenditures)
	}
	if !s.CashIn.Equal(dec("1000")) || !s.CashOut.Equal(dec("150")) || !s.PayableNet.Equal(dec("400")) {
		t.Fatalf("unexpected movement in=%s out=%s payable=%s", s.CashIn, s.CashOut, s.PayableNet)
	}
	if s.EntryCount != 5 {
		t.Fatalf("expected 5 entries summarized, got %d", s.EntryCount)
	}

	for _, e := range f.store.Entries() {
		wantLocked := e.Owner == branchB && june.Contains(e.EntryDate)
		if e.IsLocked != wantLocked {
			t.Fatalf("entry %s %s dated %s locked=%v", e.Kind, e.Owner, e.EntryDate, e.IsLocked)
		}
	}

	events := f.store.Events()
	last := events[len(events)-1]
	if last.EventType != domain.EventTypePeriodClosed || last.AggregateID != "branch:B1/2024-06" {
		t.Fatalf("unexpected event %+v", last)
	}
	if got := f.metrics.Count(f.metrics.Periods, "CLOSED/success"); got != 1 {
		t.Fatalf("expected one successful close, got %d", got)
	}
}

func TestPeriodUseCase_CloseErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	june := domain.PeriodOf(june15)

	if _, err := f.period.ClosePeriod(ctx, usecase.PeriodInput{Owner: branchB, Period: june, Actor: "treasurer"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		input   usecase.PeriodInput
		wantErr error
	}{
		{name: "already closed", input: usecase.PeriodInput{Owner: branchB, Period: june, Actor: "treasurer"}, wantErr: domain.ErrPeriodAlreadyClosed},
		{name: "future month", input: usecase.PeriodInput{Owner: branchB, Period: domain.Period{Year: 2024, Month: 8}, Actor: "treasurer"}, wantErr: domain.ErrPeriodInFuture},
		{name: "no actor", input: usecase.PeriodInput{Owner: branchB, Period: june, Actor: "  "}, wantErr: domain.ErrActorRequired},
		{name: "bad month", input: usecase.PeriodInput{Owner: branchB, Period: domain.Period{Year: 2024, Month: 13}, Actor: "x"}, wantErr: domain.ErrInvalidPeriod},
		{name: "bad owner", input: usecase.PeriodInput{Owner: domain.Branch(""), Period: june, Actor: "x"}, wantErr: domain.ErrInvalidOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.period.ClosePeriod(ctx, tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPeriodUseCase_CurrentMonthCanClose(t *testing.T) {
	f := newFixture()

	if _, err := f.period.ClosePeriod(context.Background(), usecase.PeriodInput{Owner: branchB, Period: domain.PeriodOf(july20), Actor: "treasurer"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPeriodUseCase_ReopenUnlocks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	june := domain.PeriodOf(june15)
	in := usecase.PeriodInput{Owner: branchB, Period: june, Actor: "treasurer"}

	if _, err := f.period.ReopenPeriod(ctx, in); !errors.Is(err, domain.ErrPeriodNotClosed) {
		t.Fatalf("expected ErrPeriodNotClosed, got %v", err)
	}

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	closed, err := f.period.ClosePeriod(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened, err := f.period.ReopenPeriod(ctx, usecase.PeriodInput{Owner: branchB, Period: june, Actor: "bishop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reopened.Status != domain.PeriodStatusOpen || reopened.ReopenedBy != "bishop" || reopened.LockedCount != 0 {
		t.Fatalf("unexpected reopen record %+v", reopened)
	}
	if reopened.Summary == nil || !reopened.Summary.CashIn.Equal(closed.Summary.CashIn) {
		t.Fatalf("reopen dropped the last snapshot")
	}
	if reopened.ClosedBy != "treasurer" {
		t.Fatalf("reopen lost close history")
	}

	for _, e := range f.store.Entries() {
		if e.IsLocked {
			t.Fatalf("entry %s still locked after reopen", e.ID)
		}
	}

	// Writes succeed again and the month can be closed a second time.
	if _, err := f.posting.PostContribution(ctx, tithe("C-2", "50", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := f.period.ClosePeriod(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.Summary.CashIn.Equal(dec("1050")) {
		t.Fatalf("second close snapshot cash in = %s", again.Summary.CashIn)
	}

	events := f.store.Events()
	var reopenEvents int
	for _, ev := range events {
		if ev.EventType == domain.EventTypePeriodReopened {
			reopenEvents++
		}
	}
	if reopenEvents != 1 {
		t.Fatalf("expected one reopen event, got %d", reopenEvents)
	}
}

func TestPeriodUseCase_FailedCloseLeavesPeriodOpen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	june := domain.PeriodOf(june15)

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boom := errors.New("boom")
	f.store.FailOn("OutboxRepository.Create", boom)
	if _, err := f.period.ClosePeriod(ctx, usecase.PeriodInput{Owner: branchB, Period: june, Actor: "treasurer"}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	f.store.FailOn("OutboxRepository.Create", nil)

	pc, err := f.period.GetPeriod(ctx, branchB, june)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.IsClosed() {
		t.Fatalf("period closed despite failed transaction")
	}
	for _, e := range f.store.Entries() {
		if e.IsLocked {
			t.Fatalf("entry locked despite failed transaction")
		}
	}
	if got := f.metrics.Count(f.metrics.Periods, "CLOSED/error"); got != 1 {
		t.Fatalf("expected one failed close, got %d", got)
	}
}

func TestPeriodUseCase_GetAndListPeriods(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pc, err := f.period.GetPeriod(ctx, branchB, domain.PeriodOf(june15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.Status != domain.PeriodStatusOpen {
		t.Fatalf("never-closed period should be OPEN, got %s", pc.Status)
	}

	for _, m := range []int{4, 5, 6} {
		p, _ := domain.NewPeriod(2024, m)
		if _, err := f.period.ClosePeriod(ctx, usecase.PeriodInput{Owner: branchB, Period: p, Actor: "treasurer"}); err != nil {
			t.Fatalf("close %s: %v", p, err)
		}
	}

	list, err := f.period.ListPeriods(ctx, usecase.ListPeriodsInput{Owner: branchB, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(list))
	}
	if list[0].Period.String() != "2024-06" || list[1].Period.String() != "2024-05" {
		t.Fatalf("expected newest first, got %s, %s", list[0].Period, list[1].Period)
	}
}
