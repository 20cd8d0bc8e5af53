package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/usecase"
	"github.com/iho/missionledger/internal/usecase/mocks"
)

var (
	june15 = time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	july10 = time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC)
	july20 = time.Date(2024, time.July, 20, 9, 0, 0, 0, time.UTC)

	branchB   = domain.Branch("B1")
	areaA     = domain.Area("A1")
	districtD = domain.District("D1")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store   *mocks.MemoryLedger
	metrics *mocks.RecordingMetrics
	posting *usecase.PostingUseCase
	balance *usecase.BalanceUseCase
	period  *usecase.PeriodUseCase
}

func newFixture(opts ...usecase.PostingOption) *fixture {
	store := mocks.NewMemoryLedger()
	metrics := mocks.NewRecordingMetrics()
	ids := mocks.NewSequenceIDGenerator()
	clock := func() time.Time { return july20 }

	opts = append([]usecase.PostingOption{usecase.WithMetrics(metrics), usecase.WithClock(clock)}, opts...)
	posting := usecase.NewPostingUseCase(store, store, store, store, store, store, store.Outbox(), ids, opts...)

	period := usecase.NewPeriodUseCase(store, store, store, store, store, store.Outbox(), ids, nil, metrics)
	period.WithNow(clock)

	return &fixture{
		store:   store,
		metrics: metrics,
		posting: posting,
		balance: usecase.NewBalanceUseCase(store),
		period:  period,
	}
}

func tithe(ref string, amount string, date time.Time) domain.ContributionEvent {
	return domain.ContributionEvent{
		SourceID:   ref,
		Date:       date,
		Amount:     dec(amount),
		BranchID:   "B1",
		AreaID:     "A1",
		DistrictID: "D1",
		Allocation: domain.Allocation{Mission: dec("20"), Area: dec("10"), District: dec("10"), Branch: dec("60")},
	}
}

func (f *fixture) mustBalance(t *testing.T, owner domain.Owner, kind domain.EntryKind, want string) {
	t.Helper()
	got, err := f.balance.Balance(context.Background(), owner, kind, nil)
	if err != nil {
		t.Fatalf("balance(%s, %s): %v", owner, kind, err)
	}
	if !got.Equal(dec(want)) {
		t.Fatalf("balance(%s, %s) = %s, want %s", owner, kind, got, want)
	}
}

func (f *fixture) mustSpendable(t *testing.T, owner domain.Owner, want string) {
	t.Helper()
	got, err := f.balance.Spendable(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("spendable(%s): %v", owner, err)
	}
	if !got.Equal(dec(want)) {
		t.Fatalf("spendable(%s) = %s, want %s", owner, got, want)
	}
}

func TestPostingUseCase_TitheScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.mustBalance(t, branchB, domain.EntryKindCash, "1000")
	f.mustBalance(t, branchB, domain.EntryKindPayable, "400")
	f.mustBalance(t, domain.Mission(), domain.EntryKindReceivable, "200")
	f.mustBalance(t, areaA, domain.EntryKindReceivable, "100")
	f.mustBalance(t, districtD, domain.EntryKindReceivable, "100")
	f.mustSpendable(t, branchB, "600")
	f.mustSpendable(t, domain.Mission(), "0")

	_, err := f.posting.PostRemittance(ctx, domain.RemittanceEvent{
		SourceID:    "R-1",
		PaymentDate: july10,
		Period:      domain.PeriodOf(june15),
		Amount:      dec("200"),
		BranchID:    "B1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.mustBalance(t, branchB, domain.EntryKindCash, "800")
	f.mustBalance(t, branchB, domain.EntryKindPayable, "200")
	f.mustBalance(t, domain.Mission(), domain.EntryKindReceivable, "0")
	f.mustBalance(t, domain.Mission(), domain.EntryKindCash, "200")
	f.mustSpendable(t, branchB, "600")
	f.mustSpendable(t, domain.Mission(), "200")

	if ok, err := usecase.NewLedgerUseCase(f.store).CheckConsistency(ctx); !ok || err != nil {
		t.Fatalf("ledger inconsistent: %v", err)
	}
}

func TestPostingUseCase_EveryBundleNetsToZero(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "333.33", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.posting.PostRemittance(ctx, domain.RemittanceEvent{
		SourceID: "R-1", PaymentDate: july10, Period: domain.PeriodOf(june15), Amount: dec("33.33"), BranchID: "B1", Recipient: areaA,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pairs, err := f.store.PairBalances(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	for _, p := range pairs {
		if !p.Matched() {
			t.Fatalf("pair %s/%s unmatched: %s vs %s", p.Creditor, p.Debtor, p.Receivable, p.Payable)
		}
	}

	cash := decimal.Zero
	for _, e := range f.store.Entries() {
		if e.Kind == domain.EntryKindCash {
			cash = cash.Add(e.Amount)
		}
	}
	if !cash.Equal(dec("333.33")) {
		t.Fatalf("cash across owners = %s, want 333.33", cash)
	}
}

func TestPostingUseCase_RemittanceConservesCash(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "500", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// branch payable, mission receivable, mission cash, branch cash
	watched := []struct {
		owner domain.Owner
		kind  domain.EntryKind
	}{
		{branchB, domain.EntryKindPayable},
		{domain.Mission(), domain.EntryKindReceivable},
		{domain.Mission(), domain.EntryKindCash},
		{branchB, domain.EntryKindCash},
	}
	snapshot := func() [4]decimal.Decimal {
		var out [4]decimal.Decimal
		for i, w := range watched {
			bal, err := f.balance.Balance(ctx, w.owner, w.kind, nil)
			if err != nil {
				t.Fatalf("balance(%s, %s): %v", w.owner, w.kind, err)
			}
			out[i] = bal
		}
		return out
	}

	before := snapshot()
	if !before[0].Equal(dec("200")) {
		t.Fatalf("expected prior payable 200, got %s", before[0])
	}

	p, err := f.posting.PostRemittance(ctx, domain.RemittanceEvent{
		SourceID: "R-1", PaymentDate: july10, Period: domain.PeriodOf(june15), Amount: dec("60"), BranchID: "B1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := snapshot()
	var deltas [4]string
	for i := range after {
		deltas[i] = after[i].Sub(before[i]).String()
	}
	if want := [4]string{"-60", "-60", "60", "-60"}; deltas != want {
		t.Fatalf("remittance deltas (branch payable, mission receivable, mission cash, branch cash) = %v, want %v", deltas, want)
	}

	if len(p.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(p.Entries))
	}
	want := map[domain.EntryKind]map[domain.Owner]string{
		domain.EntryKindCash:       {branchB: "-60", domain.Mission(): "60"},
		domain.EntryKindPayable:    {branchB: "-60"},
		domain.EntryKindReceivable: {domain.Mission(): "-60"},
	}
	for _, e := range p.Entries {
		w, ok := want[e.Kind][e.Owner]
		if !ok || !e.Amount.Equal(dec(w)) {
			t.Fatalf("unexpected leg %s %s %s", e.Kind, e.Owner, e.Amount)
		}
		if !domain.DateOf(e.EntryDate).Equal(july10) {
			t.Fatalf("leg dated %s, want payment date", e.EntryDate)
		}
	}
}

func TestPostingUseCase_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15))
	if !errors.Is(err, domain.ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Fatalf("expected the existing posting %s, got %+v", first.ID, second)
	}

	if n := len(f.store.Entries()); n != 7 {
		t.Fatalf("expected 7 entries after retry, got %d", n)
	}
	f.mustBalance(t, branchB, domain.EntryKindCash, "1000")

	if got := f.metrics.Count(f.metrics.Postings, "CONTRIBUTION/duplicate"); got != 1 {
		t.Fatalf("expected one duplicate outcome, got %d", got)
	}
}

func TestPostingUseCase_ConcurrentRetriesPostOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.posting.PostDonation(ctx, domain.DonationEvent{SourceID: "D-1", Date: june15, Amount: dec("50")})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrDuplicateEntry):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one write, got %d", succeeded)
	}
	f.mustBalance(t, domain.Mission(), domain.EntryKindCash, "50")
}

// lostRacePostings sees nothing inside the write transaction and fails the
// committed re-read that follows a lost race on the source index.
type lostRacePostings struct {
	*mocks.MemoryLedger
	readErr error
}

func (p lostRacePostings) GetActiveBySource(ctx context.Context, tx usecase.Transaction, kind domain.SourceKind, ref string) (*domain.Posting, error) {
	if tx == nil {
		return nil, p.readErr
	}
	return p.MemoryLedger.GetActiveBySource(ctx, tx, kind, ref)
}

func TestPostingUseCase_LostRaceLogsFailedReread(t *testing.T) {
	store := mocks.NewMemoryLedger()
	store.FailOn("PostingRepository.Create", domain.ErrDuplicateEntry)
	readErr := errors.New("connection reset")

	posting := usecase.NewPostingUseCase(store, lostRacePostings{MemoryLedger: store, readErr: readErr},
		store, store, store, store, store.Outbox(), mocks.NewSequenceIDGenerator(),
		usecase.WithClock(func() time.Time { return july20 }))

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	p, err := posting.PostDonation(ctx, domain.DonationEvent{SourceID: "D-7", Date: june15, Amount: dec("10")})
	if !errors.Is(err, domain.ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}
	if p != nil {
		t.Fatalf("expected no posting, got %+v", p)
	}

	out := buf.String()
	if !strings.Contains(out, "duplicate posting could not be re-read") || !strings.Contains(out, "connection reset") {
		t.Fatalf("re-read failure not logged: %q", out)
	}
	if !strings.Contains(out, `"source_reference":"D-7"`) {
		t.Fatalf("log is missing the source reference: %q", out)
	}
}

func TestPostingUseCase_ClosedPeriodRejectsWrites(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.period.ClosePeriod(ctx, usecase.PeriodInput{Owner: branchB, Period: domain.PeriodOf(june15), Actor: "treasurer"}); err != nil {
		t.Fatalf("close: %v", err)
	}

	before := len(f.store.Entries())

	_, err := f.posting.PostContribution(ctx, tithe("C-2", "100", june15.AddDate(0, 0, 2)))
	var locked *domain.PeriodLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("expected PeriodLockedError, got %v", err)
	}
	if locked.Owner != branchB || locked.Period != domain.PeriodOf(june15) {
		t.Fatalf("unexpected locked period %s %s", locked.Owner, locked.Period)
	}
	if !errors.Is(err, domain.ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked to match")
	}
	if len(f.store.Entries()) != before {
		t.Fatalf("rejected posting left entries behind")
	}

	// July is still open for the same branch.
	if _, err := f.posting.PostContribution(ctx, tithe("C-3", "100", july10)); err != nil {
		t.Fatalf("july posting: %v", err)
	}

	if got := f.metrics.Count(f.metrics.Postings, "CONTRIBUTION/period_locked"); got != 1 {
		t.Fatalf("expected one period_locked outcome, got %d", got)
	}
}

func TestPostingUseCase_ClosedCounterpartyPeriodRejectsWrites(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.period.ClosePeriod(ctx, usecase.PeriodInput{Owner: domain.Mission(), Period: domain.PeriodOf(june15), Actor: "auditor"}); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15))
	if !errors.Is(err, domain.ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked, got %v", err)
	}
}

func TestPostingUseCase_RemittanceGuard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		recipient domain.Owner
		amount    string
		wantErr   error
	}{
		{name: "more than owed to mission", amount: "200.01", wantErr: domain.ErrRemittanceExceedsPayable},
		{name: "nothing owed to unrelated area", recipient: domain.Area("A9"), amount: "1", wantErr: domain.ErrRemittanceExceedsPayable},
		{name: "branch cannot receive", recipient: domain.Branch("B2"), amount: "1", wantErr: domain.ErrInvalidOwner},
		{name: "partial remittance to district", recipient: districtD, amount: "40"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.posting.PostRemittance(ctx, domain.RemittanceEvent{
				SourceID:    "R-" + string(rune('a'+i)),
				PaymentDate: july10,
				Period:      domain.PeriodOf(june15),
				Amount:      dec(tt.amount),
				BranchID:    "B1",
				Recipient:   tt.recipient,
			})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	f.mustBalance(t, branchB, domain.EntryKindPayable, "360")
	f.mustBalance(t, districtD, domain.EntryKindReceivable, "60")
}

func TestPostingUseCase_FullRemittanceClearsPair(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.posting.PostRemittance(ctx, domain.RemittanceEvent{
		SourceID: "R-1", PaymentDate: july10, Period: domain.PeriodOf(june15), Amount: dec("200"), BranchID: "B1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range f.store.Entries() {
		missionPair := (e.Owner == domain.Mission() && e.Counterparty == branchB) ||
			(e.Owner == branchB && e.Counterparty == domain.Mission())
		switch {
		case missionPair && e.Status != domain.EntryStatusCleared:
			t.Fatalf("entry %s %s/%s should be CLEARED, is %s", e.Kind, e.Owner, e.Counterparty, e.Status)
		case !missionPair && e.Kind != domain.EntryKindCash && e.Status != domain.EntryStatusActive:
			t.Fatalf("entry %s %s/%s should stay ACTIVE, is %s", e.Kind, e.Owner, e.Counterparty, e.Status)
		}
	}

	// Cleared entries still count toward balances.
	f.mustBalance(t, branchB, domain.EntryKindPayable, "200")
	f.mustBalance(t, domain.Mission(), domain.EntryKindCash, "200")
}

func TestPostingUseCase_SpendGuard(t *testing.T) {
	tests := []struct {
		name    string
		enforce bool
		amount  string
		wantErr error
	}{
		{name: "advisory allows overspend", enforce: false, amount: "900"},
		{name: "enforced within spendable", enforce: true, amount: "600"},
		{name: "enforced rejects receivable-backed spend", enforce: true, amount: "600.01", wantErr: domain.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(usecase.WithSpendGuard(tt.enforce))
			ctx := context.Background()

			if _, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err := f.posting.PostExpenditure(ctx, domain.ExpenditureEvent{
				SourceID: "E-1", Date: july10, Amount: dec(tt.amount), Owner: branchB, Description: "roof",
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPostingUseCase_MissionNeverSpendsReceivable(t *testing.T) {
	f := newFixture(usecase.WithSpendGuard(true))
	ctx := context.Background()

	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.posting.PostCommission(ctx, domain.CommissionEvent{SourceID: "K-1", PaidDate: july10, Amount: dec("1"), RecipientID: "pastor-1"})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if _, err := f.posting.PostDonation(ctx, domain.DonationEvent{SourceID: "D-1", Date: july10, Amount: dec("75"), Donor: "anon"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.posting.PostCommission(ctx, domain.CommissionEvent{SourceID: "K-1", PaidDate: july10, Amount: dec("75"), RecipientID: "pastor-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.mustSpendable(t, domain.Mission(), "0")
}

func TestPostingUseCase_FailedWriteLeavesNothing(t *testing.T) {
	ops := []string{"PostingRepository.Create", "OutboxRepository.Create", "Transaction.Commit", "OwnerLocker.LockOwners"}

	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			f := newFixture()
			boom := errors.New("boom")
			f.store.FailOn(op, boom)

			_, err := f.posting.PostContribution(context.Background(), tithe("C-1", "1000", june15))
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
			if n := len(f.store.Entries()); n != 0 {
				t.Fatalf("expected no entries, got %d", n)
			}
			if n := len(f.store.Events()); n != 0 {
				t.Fatalf("expected no outbox events, got %d", n)
			}
			if got := f.metrics.Count(f.metrics.Postings, "CONTRIBUTION/error"); got != 1 {
				t.Fatalf("expected one error outcome, got %d", got)
			}
		})
	}
}

func TestPostingUseCase_RetriesTransientFailure(t *testing.T) {
	transient := errors.New("deadlock detected")
	retrier := &mocks.RetryOnce{Retryable: transient}
	f := newFixture(usecase.WithRetrier(retrier))

	f.store.FailOn("Transaction.Commit", transient)

	_, err := f.posting.PostDonation(context.Background(), domain.DonationEvent{SourceID: "D-1", Date: june15, Amount: dec("10")})
	if !errors.Is(err, transient) {
		t.Fatalf("expected transient error while commit keeps failing, got %v", err)
	}
	if retrier.Calls != 2 {
		t.Fatalf("expected one retry, got %d calls", retrier.Calls)
	}

	f.store.FailOn("Transaction.Commit", nil)
	if _, err := f.posting.PostDonation(context.Background(), domain.DonationEvent{SourceID: "D-1", Date: june15, Amount: dec("10")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.mustBalance(t, domain.Mission(), domain.EntryKindCash, "10")
}

func TestPostingUseCase_InvalidEventsRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		post    func() error
		wantErr error
	}{
		{
			name: "allocation not 100",
			post: func() error {
				ev := tithe("C-1", "100", june15)
				ev.Allocation.Branch = dec("50")
				_, err := f.posting.PostContribution(ctx, ev)
				return err
			},
			wantErr: domain.ErrInvalidAllocation,
		},
		{
			name: "missing area",
			post: func() error {
				ev := tithe("C-1", "100", june15)
				ev.AreaID = ""
				_, err := f.posting.PostContribution(ctx, ev)
				return err
			},
			wantErr: domain.ErrMissingHierarchy,
		},
		{
			name: "member expenditure",
			post: func() error {
				_, err := f.posting.PostExpenditure(ctx, domain.ExpenditureEvent{SourceID: "E-1", Date: june15, Amount: dec("1"), Owner: domain.Member("M1")})
				return err
			},
			wantErr: domain.ErrInvalidOwner,
		},
		{
			name: "zero donation",
			post: func() error {
				_, err := f.posting.PostDonation(ctx, domain.DonationEvent{SourceID: "D-1", Date: june15, Amount: decimal.Zero})
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "adjustment without reason",
			post: func() error {
				_, err := f.posting.PostAdjustment(ctx, domain.BalanceEvent{SourceID: "A-1", Date: june15, Amount: dec("1"), Kind: domain.EntryKindCash, Owner: branchB})
				return err
			},
			wantErr: domain.ErrMissingSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.post(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if n := len(f.store.Entries()); n != 0 {
		t.Fatalf("expected no entries, got %d", n)
	}
	if got := f.metrics.Count(f.metrics.Postings, "CONTRIBUTION/rejected"); got != 2 {
		t.Fatalf("expected two rejected contributions, got %d", got)
	}
}

func TestPostingUseCase_OpeningBalanceAndAdjustment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.posting.PostOpeningBalance(ctx, domain.BalanceEvent{
		SourceID: "OB-1", Date: june15, Amount: dec("250"), Kind: domain.EntryKindReceivable,
		Owner: domain.Mission(), Counterparty: branchB,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.mustBalance(t, domain.Mission(), domain.EntryKindReceivable, "250")
	f.mustBalance(t, branchB, domain.EntryKindPayable, "250")

	if _, err := f.posting.PostAdjustment(ctx, domain.BalanceEvent{
		SourceID: "ADJ-1", Date: july10, Amount: dec("-50"), Kind: domain.EntryKindReceivable,
		Owner: domain.Mission(), Counterparty: branchB, Reason: "miscount",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.mustBalance(t, domain.Mission(), domain.EntryKindReceivable, "200")
	f.mustBalance(t, branchB, domain.EntryKindPayable, "200")
}

func TestPostingUseCase_OutboxEventWritten(t *testing.T) {
	f := newFixture()

	p, err := f.posting.PostContribution(context.Background(), tithe("C-1", "1000", june15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := f.store.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventType != domain.EventTypePostingCreated || ev.AggregateID != p.ID || ev.AggregateType != domain.AggregateTypePosting {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Payload["source_reference"] != "C-1" {
		t.Fatalf("unexpected payload %v", ev.Payload)
	}
}

func TestPostingUseCase_LocksOwnersInOrder(t *testing.T) {
	f := newFixture()

	if _, err := f.posting.PostContribution(context.Background(), tithe("C-1", "1000", june15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.store.LockedOwners) != 1 {
		t.Fatalf("expected one lock call, got %d", len(f.store.LockedOwners))
	}
	got := f.store.LockedOwners[0]
	want := append([]domain.Owner(nil), got...)
	domain.SortOwners(want)
	if len(got) != 4 {
		t.Fatalf("expected 4 owners locked, got %v", got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("owners not locked in sorted order: %v", got)
		}
	}
}

func TestPostingUseCase_ReversePosting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	original, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rev, err := f.posting.ReversePosting(ctx, usecase.ReversePostingInput{PostingID: original.ID, Date: july10, Reason: "entered twice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rev.ReversalOf == nil || *rev.ReversalOf != original.ID {
		t.Fatalf("reversal not linked to original")
	}

	f.mustBalance(t, branchB, domain.EntryKindCash, "0")
	f.mustBalance(t, branchB, domain.EntryKindPayable, "0")
	f.mustBalance(t, domain.Mission(), domain.EntryKindReceivable, "0")

	reloaded, err := f.posting.GetPosting(ctx, original.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Status != domain.PostingStatusReversed {
		t.Fatalf("original status %s, want REVERSED", reloaded.Status)
	}
	for i, e := range reloaded.Entries {
		if e.Status != domain.EntryStatusReversed || e.ReversedBy == nil || *e.ReversedBy != rev.Entries[i].ID {
			t.Fatalf("entry %d not linked to its offset", i)
		}
	}

	if _, err := f.posting.ReversePosting(ctx, usecase.ReversePostingInput{PostingID: original.ID, Date: july10}); !errors.Is(err, domain.ErrAlreadyReversed) {
		t.Fatalf("expected ErrAlreadyReversed, got %v", err)
	}

	// The source may be posted again once reversed.
	if _, err := f.posting.PostContribution(ctx, tithe("C-1", "900", june15)); err != nil {
		t.Fatalf("repost after reversal: %v", err)
	}
	f.mustBalance(t, branchB, domain.EntryKindCash, "900")

	if got := f.metrics.Count(f.metrics.Reversal, usecase.OutcomeSuccess); got != 1 {
		t.Fatalf("expected one successful reversal, got %d", got)
	}
}

func TestPostingUseCase_ReverseLockedPostingIntoOpenPeriod(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	original, err := f.posting.PostDonation(ctx, domain.DonationEvent{SourceID: "D-1", Date: june15, Amount: dec("80")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.period.ClosePeriod(ctx, usecase.PeriodInput{Owner: domain.Mission(), Period: domain.PeriodOf(june15), Actor: "auditor"}); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := f.posting.ReversePosting(ctx, usecase.ReversePostingInput{PostingID: original.ID, Date: june15.AddDate(0, 0, 1)}); !errors.Is(err, domain.ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked for a june-dated reversal, got %v", err)
	}

	if _, err := f.posting.ReversePosting(ctx, usecase.ReversePostingInput{PostingID: original.ID, Date: july10, Reason: "bounced"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := f.posting.GetPosting(ctx, original.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e := reloaded.Entries[0]; e.Status != domain.EntryStatusActive || !e.IsLocked {
		t.Fatalf("locked original entry changed: %s locked=%v", e.Status, e.IsLocked)
	}

	asOfJune := domain.PeriodOf(june15).End()
	june, err := f.balance.Balance(ctx, domain.Mission(), domain.EntryKindCash, &asOfJune)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !june.Equal(dec("80")) {
		t.Fatalf("closed june balance moved to %s", june)
	}
	f.mustBalance(t, domain.Mission(), domain.EntryKindCash, "0")
}

func TestPostingUseCase_ClearedPostingCannotBeReversed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c, err := f.posting.PostContribution(ctx, tithe("C-1", "1000", june15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.posting.PostRemittance(ctx, domain.RemittanceEvent{
		SourceID: "R-1", PaymentDate: july10, Period: domain.PeriodOf(june15), Amount: dec("200"), BranchID: "B1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.posting.ReversePosting(ctx, usecase.ReversePostingInput{PostingID: c.ID, Date: july10}); !errors.Is(err, domain.ErrEntryCleared) {
		t.Fatalf("expected ErrEntryCleared, got %v", err)
	}
	if got := f.metrics.Count(f.metrics.Reversal, usecase.OutcomeError); got != 1 {
		t.Fatalf("expected one failed reversal, got %d", got)
	}
}

func TestPostingUseCase_GetPostingBySource(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.posting.GetPostingBySource(ctx, domain.SourceDonation, "D-1"); !errors.Is(err, domain.ErrPostingNotFound) {
		t.Fatalf("expected ErrPostingNotFound, got %v", err)
	}

	p, err := f.posting.PostDonation(ctx, domain.DonationEvent{SourceID: "D-1", Date: june15, Amount: dec("5")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.posting.GetPostingBySource(ctx, domain.SourceDonation, "D-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID || len(got.Entries) != 1 {
		t.Fatalf("unexpected posting %+v", got)
	}
}
