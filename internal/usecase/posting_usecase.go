package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
)

// PostingUseCase turns business events into balanced entry bundles and writes
// them atomically.
type PostingUseCase struct {
	txManager   TransactionManager
	postingRepo PostingRepository
	entryRepo   EntryRepository
	balanceRepo BalanceRepository
	periodRepo  PeriodRepository
	locker      OwnerLocker
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	metrics     MetricsRecorder
	now         func() time.Time

	enforceSpendable bool
}

// PostingOption configures a PostingUseCase.
type PostingOption func(*PostingUseCase)

// WithRetrier retries write transactions on transient store failures.
func WithRetrier(r Retrier) PostingOption {
	return func(uc *PostingUseCase) { uc.retrier = r }
}

// WithMetrics reports posting outcomes.
func WithMetrics(m MetricsRecorder) PostingOption {
	return func(uc *PostingUseCase) { uc.metrics = m }
}

// WithSpendGuard makes expenditures and commissions fail with
// domain.ErrInsufficientFunds when the owner cannot cover them.
func WithSpendGuard(enabled bool) PostingOption {
	return func(uc *PostingUseCase) { uc.enforceSpendable = enabled }
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) PostingOption {
	return func(uc *PostingUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(
	txManager TransactionManager,
	postingRepo PostingRepository,
	entryRepo EntryRepository,
	balanceRepo BalanceRepository,
	periodRepo PeriodRepository,
	locker OwnerLocker,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	opts ...PostingOption,
) *PostingUseCase {
	uc := &PostingUseCase{
		txManager:   txManager,
		postingRepo: postingRepo,
		entryRepo:   entryRepo,
		balanceRepo: balanceRepo,
		periodRepo:  periodRepo,
		locker:      locker,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     noRetry{},
		metrics:     noMetrics{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// txHook runs inside the write transaction after the owners are locked.
type txHook func(ctx context.Context, tx Transaction, p *domain.Posting) error

// PostContribution posts a verified contribution.
func (uc *PostingUseCase) PostContribution(ctx context.Context, ev domain.ContributionEvent) (*domain.Posting, error) {
	p, err := domain.BuildContribution(ev)
	if err != nil {
		return nil, uc.rejected(domain.SourceContribution, err)
	}
	return uc.post(ctx, p, nil, nil)
}

// PostRemittance posts a remittance. The amount may not exceed what the branch
// still owes the recipient. Once the pair nets to zero its open entries are
// marked CLEARED.
func (uc *PostingUseCase) PostRemittance(ctx context.Context, ev domain.RemittanceEvent) (*domain.Posting, error) {
	p, err := domain.BuildRemittance(ev)
	if err != nil {
		return nil, uc.rejected(domain.SourceRemittance, err)
	}

	branch := domain.Branch(ev.BranchID)
	recipient, _ := domain.RemittanceRecipient(ev.Recipient)

	guard := func(ctx context.Context, tx Transaction, _ *domain.Posting) error {
		owed, err := uc.balanceRepo.Sum(ctx, tx, BalanceFilter{
			Owner:        branch,
			Kind:         domain.EntryKindPayable,
			Counterparty: recipient,
		})
		if err != nil {
			return err
		}
		if ev.Amount.GreaterThan(owed) {
			return fmt.Errorf("%w: %s owes %s %s", domain.ErrRemittanceExceedsPayable, branch, recipient, owed.StringFixed(2))
		}
		return nil
	}

	settle := func(ctx context.Context, tx Transaction, _ *domain.Posting) error {
		return uc.clearPair(ctx, tx, recipient, branch)
	}

	return uc.post(ctx, p, guard, settle)
}

// PostExpenditure posts cash spent by an owner.
func (uc *PostingUseCase) PostExpenditure(ctx context.Context, ev domain.ExpenditureEvent) (*domain.Posting, error) {
	p, err := domain.BuildExpenditure(ev)
	if err != nil {
		return nil, uc.rejected(domain.SourceExpenditure, err)
	}
	return uc.post(ctx, p, uc.spendGuard(ev.Owner, ev.Amount), nil)
}

// PostCommission posts a commission paid out of Mission cash.
func (uc *PostingUseCase) PostCommission(ctx context.Context, ev domain.CommissionEvent) (*domain.Posting, error) {
	p, err := domain.BuildCommission(ev)
	if err != nil {
		return nil, uc.rejected(domain.SourceCommission, err)
	}
	return uc.post(ctx, p, uc.spendGuard(domain.Mission(), ev.Amount), nil)
}

// PostDonation posts a direct donation to the Mission.
func (uc *PostingUseCase) PostDonation(ctx context.Context, ev domain.DonationEvent) (*domain.Posting, error) {
	p, err := domain.BuildDonation(ev)
	if err != nil {
		return nil, uc.rejected(domain.SourceDonation, err)
	}
	return uc.post(ctx, p, nil, nil)
}

// PostOpeningBalance seeds a balance carried over from before the ledger.
func (uc *PostingUseCase) PostOpeningBalance(ctx context.Context, ev domain.BalanceEvent) (*domain.Posting, error) {
	p, err := domain.BuildOpeningBalance(ev)
	if err != nil {
		return nil, uc.rejected(domain.SourceOpeningBalance, err)
	}
	return uc.post(ctx, p, nil, nil)
}

// PostAdjustment posts a manual correction.
func (uc *PostingUseCase) PostAdjustment(ctx context.Context, ev domain.BalanceEvent) (*domain.Posting, error) {
	p, err := domain.BuildAdjustment(ev)
	if err != nil {
		return nil, uc.rejected(domain.SourceAdjustment, err)
	}
	return uc.post(ctx, p, nil, nil)
}

// post writes p unless its source already has an active posting. On a
// duplicate the existing posting is returned together with
// domain.ErrDuplicateEntry so callers can treat it as success.
func (uc *PostingUseCase) post(ctx context.Context, p *domain.Posting, guard, after txHook) (*domain.Posting, error) {
	start := time.Now()

	var existing *domain.Posting
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		existing, err = uc.write(ctx, p, guard, after)
		return err
	})

	switch {
	case err == nil:
		uc.metrics.PostingRecorded(p.SourceKind, OutcomeSuccess, time.Since(start))
		return p, nil
	case errors.Is(err, domain.ErrDuplicateEntry):
		uc.metrics.PostingRecorded(p.SourceKind, OutcomeDuplicate, time.Since(start))
		if existing == nil {
			// Lost the race on the unique index: the winner is committed now.
			var readErr error
			existing, readErr = uc.postingRepo.GetActiveBySource(ctx, nil, p.SourceKind, p.SourceReference)
			if readErr != nil {
				zerolog.Ctx(ctx).Warn().Err(readErr).
					Str("source_kind", string(p.SourceKind)).
					Str("source_reference", p.SourceReference).
					Msg("duplicate posting could not be re-read")
			}
		}
		return existing, err
	case errors.Is(err, domain.ErrPeriodLocked):
		uc.metrics.PostingRecorded(p.SourceKind, OutcomeLocked, time.Since(start))
		return nil, err
	default:
		uc.metrics.PostingRecorded(p.SourceKind, OutcomeError, time.Since(start))
		return nil, err
	}
}

func (uc *PostingUseCase) write(ctx context.Context, p *domain.Posting, guard, after txHook) (*domain.Posting, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// 1. Serialize against closes and other writers of the same owners
	if err := uc.locker.LockOwners(txCtx, tx, p.Owners()); err != nil {
		return nil, err
	}

	// 2. Idempotency: one active posting per source
	existing, err := uc.postingRepo.GetActiveBySource(txCtx, tx, p.SourceKind, p.SourceReference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, domain.ErrDuplicateEntry
	}

	// 3. Refuse closed periods
	if err := uc.checkOpen(txCtx, tx, p); err != nil {
		return nil, err
	}

	if guard != nil {
		if err := guard(txCtx, tx, p); err != nil {
			return nil, err
		}
	}

	// 4. Write the bundle
	uc.assignIDs(p)
	if err := uc.postingRepo.Create(txCtx, tx, p); err != nil {
		return nil, err
	}

	if after != nil {
		if err := after(txCtx, tx, p); err != nil {
			return nil, err
		}
	}

	if err := uc.outboxRepo.Create(txCtx, tx, uc.createdEvent(p)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return nil, nil
}

func (uc *PostingUseCase) checkOpen(ctx context.Context, tx Transaction, p *domain.Posting) error {
	for _, op := range p.OwnerPeriods() {
		pc, err := uc.periodRepo.Get(ctx, tx, op.Owner, op.Period)
		if err != nil {
			return err
		}
		if pc.IsClosed() {
			return &domain.PeriodLockedError{Owner: op.Owner, Period: op.Period}
		}
	}
	return nil
}

func (uc *PostingUseCase) assignIDs(p *domain.Posting) {
	now := uc.now().UTC()

	p.ID = uc.idGen.Generate()
	p.CreatedAt = now
	for _, e := range p.Entries {
		e.ID = uc.idGen.Generate()
		e.PostingID = p.ID
		e.CreatedAt = now
	}
}

func (uc *PostingUseCase) spendGuard(owner domain.Owner, amount decimal.Decimal) txHook {
	if !uc.enforceSpendable {
		return nil
	}
	return func(ctx context.Context, tx Transaction, _ *domain.Posting) error {
		spendable, err := spendableOf(ctx, uc.balanceRepo, tx, owner, nil)
		if err != nil {
			return err
		}
		if spendable.LessThan(amount) {
			return fmt.Errorf("%w: %s can spend %s", domain.ErrInsufficientFunds, owner, spendable.StringFixed(2))
		}
		return nil
	}
}

// clearPair marks the open entries between creditor and debtor CLEARED once
// both sides net to zero.
func (uc *PostingUseCase) clearPair(ctx context.Context, tx Transaction, creditor, debtor domain.Owner) error {
	open, err := uc.entryRepo.OpenPair(ctx, tx, creditor, debtor)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return nil
	}

	receivable, payable := decimal.Zero, decimal.Zero
	ids := make([]string, 0, len(open))
	for _, e := range open {
		switch e.Kind {
		case domain.EntryKindReceivable:
			receivable = receivable.Add(e.Amount)
		case domain.EntryKindPayable:
			payable = payable.Add(e.Amount)
		}
		ids = append(ids, e.ID)
	}
	if !receivable.IsZero() || !payable.IsZero() {
		return nil
	}

	return uc.entryRepo.MarkCleared(ctx, tx, ids)
}

func (uc *PostingUseCase) createdEvent(p *domain.Posting) *domain.OutboxEvent {
	owners := p.Owners()
	names := make([]string, len(owners))
	for i, o := range owners {
		names[i] = o.String()
	}

	return &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   p.ID,
		AggregateType: domain.AggregateTypePosting,
		EventType:     domain.EventTypePostingCreated,
		Payload: map[string]any{
			"posting_id":       p.ID,
			"source_kind":      string(p.SourceKind),
			"source_reference": p.SourceReference,
			"event_date":       p.EventDate.Format(time.DateOnly),
			"owners":           names,
			"entry_count":      len(p.Entries),
		},
		CreatedAt: p.CreatedAt,
	}
}

func (uc *PostingUseCase) rejected(kind domain.SourceKind, err error) error {
	uc.metrics.PostingRecorded(kind, OutcomeRejected, 0)
	return err
}

// ReversePostingInput represents input for reversing a posting.
type ReversePostingInput struct {
	Date      time.Time
	PostingID string
	Reason    string
}

// ReversePosting cancels a posting with an offsetting bundle dated in an open
// period and returns the offsetting posting. The source of the original may
// be posted again afterwards.
func (uc *PostingUseCase) ReversePosting(ctx context.Context, input ReversePostingInput) (*domain.Posting, error) {
	if input.Date.IsZero() {
		input.Date = uc.now()
	}

	var rev *domain.Posting
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		rev, err = uc.reverse(ctx, input)
		return err
	})
	if err != nil {
		uc.metrics.PostingReversed(OutcomeError)
		return nil, err
	}

	uc.metrics.PostingReversed(OutcomeSuccess)
	return rev, nil
}

func (uc *PostingUseCase) reverse(ctx context.Context, input ReversePostingInput) (*domain.Posting, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	original, err := uc.postingRepo.GetByIDForUpdate(txCtx, tx, input.PostingID)
	if err != nil {
		return nil, err
	}

	if err := uc.locker.LockOwners(txCtx, tx, original.Owners()); err != nil {
		return nil, err
	}

	// Re-read under the owner locks so lock flags are current.
	original, err = uc.postingRepo.GetByIDForUpdate(txCtx, tx, input.PostingID)
	if err != nil {
		return nil, err
	}
	if err := original.CanReverse(); err != nil {
		return nil, err
	}

	rev := original.Reversal(input.Date, input.Reason)
	if err := rev.Validate(); err != nil {
		return nil, err
	}
	if err := uc.checkOpen(txCtx, tx, rev); err != nil {
		return nil, err
	}

	uc.assignIDs(rev)
	if err := uc.postingRepo.Create(txCtx, tx, rev); err != nil {
		return nil, err
	}

	if !original.HasLockedEntries() {
		for i, e := range original.Entries {
			if err := uc.entryRepo.MarkReversed(txCtx, tx, e.ID, rev.Entries[i].ID); err != nil {
				return nil, err
			}
		}
	}

	if err := uc.postingRepo.UpdateStatus(txCtx, tx, original.ID, domain.PostingStatusReversed); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   original.ID,
		AggregateType: domain.AggregateTypePosting,
		EventType:     domain.EventTypePostingReversed,
		Payload: map[string]any{
			"reversal_posting_id": rev.ID,
			"original_posting_id": original.ID,
			"source_kind":         string(original.SourceKind),
			"source_reference":    original.SourceReference,
			"reversal_date":       rev.EventDate.Format(time.DateOnly),
		},
		CreatedAt: rev.CreatedAt,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return rev, nil
}

// GetPosting retrieves a posting with its entries.
func (uc *PostingUseCase) GetPosting(ctx context.Context, id string) (*domain.Posting, error) {
	return uc.postingRepo.GetByID(ctx, id)
}

// GetPostingBySource retrieves the active posting of a business event.
func (uc *PostingUseCase) GetPostingBySource(ctx context.Context, kind domain.SourceKind, ref string) (*domain.Posting, error) {
	p, err := uc.postingRepo.GetActiveBySource(ctx, nil, kind, ref)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrPostingNotFound
	}
	return p, nil
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error { return operation() }

type noMetrics struct{}

func (noMetrics) PostingRecorded(domain.SourceKind, string, time.Duration) {}
func (noMetrics) PostingReversed(string)                                   {}
func (noMetrics) PeriodTransition(domain.PeriodStatus, string)             {}
