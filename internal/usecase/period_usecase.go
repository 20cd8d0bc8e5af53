package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iho/missionledger/internal/domain"
)

// PeriodUseCase closes and reopens owner months.
type PeriodUseCase struct {
	txManager   TransactionManager
	periodRepo  PeriodRepository
	entryRepo   EntryRepository
	balanceRepo BalanceRepository
	locker      OwnerLocker
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	metrics     MetricsRecorder
	now         func() time.Time
}

// NewPeriodUseCase creates a new PeriodUseCase.
func NewPeriodUseCase(
	txManager TransactionManager,
	periodRepo PeriodRepository,
	entryRepo EntryRepository,
	balanceRepo BalanceRepository,
	locker OwnerLocker,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics MetricsRecorder,
) *PeriodUseCase {
	if retrier == nil {
		retrier = noRetry{}
	}
	if metrics == nil {
		metrics = noMetrics{}
	}
	return &PeriodUseCase{
		txManager:   txManager,
		periodRepo:  periodRepo,
		entryRepo:   entryRepo,
		balanceRepo: balanceRepo,
		locker:      locker,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
		now:         time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (uc *PeriodUseCase) WithNow(now func() time.Time) {
	if now != nil {
		uc.now = now
	}
}

// PeriodInput identifies an owner month and who acts on it.
type PeriodInput struct {
	Owner  domain.Owner
	Period domain.Period
	Actor  string
}

func (in PeriodInput) validate() error {
	if err := in.Owner.Validate(); err != nil {
		return err
	}
	if err := in.Period.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Actor) == "" {
		return domain.ErrActorRequired
	}
	return nil
}

// ClosePeriod snapshots the month's summary and locks its entries. Closing a
// month that has not started yet or is already closed fails.
func (uc *PeriodUseCase) ClosePeriod(ctx context.Context, in PeriodInput) (*domain.PeriodClose, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Period.Start().After(domain.DateOf(uc.now())) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPeriodInFuture, in.Period)
	}

	var closed *domain.PeriodClose
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		closed, err = uc.transition(ctx, in, domain.PeriodStatusClosed)
		return err
	})
	if err != nil {
		uc.metrics.PeriodTransition(domain.PeriodStatusClosed, OutcomeError)
		return nil, err
	}

	uc.metrics.PeriodTransition(domain.PeriodStatusClosed, OutcomeSuccess)
	return closed, nil
}

// ReopenPeriod unlocks a closed month. The last summary snapshot is kept.
func (uc *PeriodUseCase) ReopenPeriod(ctx context.Context, in PeriodInput) (*domain.PeriodClose, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var reopened *domain.PeriodClose
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		reopened, err = uc.transition(ctx, in, domain.PeriodStatusOpen)
		return err
	})
	if err != nil {
		uc.metrics.PeriodTransition(domain.PeriodStatusOpen, OutcomeError)
		return nil, err
	}

	uc.metrics.PeriodTransition(domain.PeriodStatusOpen, OutcomeSuccess)
	return reopened, nil
}

func (uc *PeriodUseCase) transition(ctx context.Context, in PeriodInput, target domain.PeriodStatus) (*domain.PeriodClose, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Writers of this owner wait until the close commits.
	if err := uc.locker.LockOwners(txCtx, tx, []domain.Owner{in.Owner}); err != nil {
		return nil, err
	}

	current, err := uc.periodRepo.Get(txCtx, tx, in.Owner, in.Period)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &domain.PeriodClose{Owner: in.Owner, Period: in.Period, Status: domain.PeriodStatusOpen}
	}
	if err := domain.ValidatePeriodTransition(current.Status, target); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	next := *current
	next.Status = target
	next.UpdatedAt = now

	if target == domain.PeriodStatusClosed {
		summary, err := monthlySummary(txCtx, uc.balanceRepo, tx, in.Owner, in.Period)
		if err != nil {
			return nil, err
		}
		next.Summary = summary
		next.ClosedBy = in.Actor
		next.ClosedAt = &now
	} else {
		next.ReopenedBy = in.Actor
		next.ReopenedAt = &now
	}

	count, err := uc.entryRepo.SetLocked(txCtx, tx, in.Owner, in.Period.Start(), in.Period.End(), target == domain.PeriodStatusClosed)
	if err != nil {
		return nil, err
	}
	next.LockedCount = count
	if target == domain.PeriodStatusOpen {
		next.LockedCount = 0
	}

	if err := uc.periodRepo.Upsert(txCtx, tx, &next); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, uc.periodEvent(&next, count)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return &next, nil
}

func (uc *PeriodUseCase) periodEvent(pc *domain.PeriodClose, count int64) *domain.OutboxEvent {
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   pc.Owner.String() + "/" + pc.Period.String(),
		AggregateType: domain.AggregateTypePeriod,
		CreatedAt:     pc.UpdatedAt,
	}

	if pc.Status == domain.PeriodStatusClosed {
		event.EventType = domain.EventTypePeriodClosed
		event.Payload = map[string]any{
			"owner":        pc.Owner.String(),
			"period":       pc.Period.String(),
			"closed_by":    pc.ClosedBy,
			"locked_count": count,
		}
		return event
	}

	event.EventType = domain.EventTypePeriodReopened
	event.Payload = map[string]any{
		"owner":          pc.Owner.String(),
		"period":         pc.Period.String(),
		"reopened_by":    pc.ReopenedBy,
		"unlocked_count": count,
	}
	return event
}

// GetPeriod returns the close state of an owner month; OPEN when never closed.
func (uc *PeriodUseCase) GetPeriod(ctx context.Context, owner domain.Owner, period domain.Period) (*domain.PeriodClose, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	pc, err := uc.periodRepo.Get(ctx, nil, owner, period)
	if err != nil {
		return nil, err
	}
	if pc == nil {
		return &domain.PeriodClose{Owner: owner, Period: period, Status: domain.PeriodStatusOpen}, nil
	}
	return pc, nil
}

// ListPeriodsInput represents input for listing an owner's period history.
type ListPeriodsInput struct {
	Owner  domain.Owner
	Limit  int
	Offset int
}

// ListPeriods lists closed and reopened periods of an owner, newest first.
func (uc *PeriodUseCase) ListPeriods(ctx context.Context, input ListPeriodsInput) ([]*domain.PeriodClose, error) {
	if err := input.Owner.Validate(); err != nil {
		return nil, err
	}
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.periodRepo.ListByOwner(ctx, input.Owner, limit, offset)
}
