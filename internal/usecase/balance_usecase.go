package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/missionledger/internal/domain"
)

// BalanceUseCase is the read side of the ledger. Every balance shown to a
// caller is computed here; nothing else sums raw entries.
type BalanceUseCase struct {
	balanceRepo BalanceRepository
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(balanceRepo BalanceRepository) *BalanceUseCase {
	return &BalanceUseCase{balanceRepo: balanceRepo}
}

// Balance sums the owner's posted entries of one kind dated on or before asOf.
func (uc *BalanceUseCase) Balance(ctx context.Context, owner domain.Owner, kind domain.EntryKind, asOf *time.Time) (decimal.Decimal, error) {
	if err := owner.Validate(); err != nil {
		return decimal.Zero, err
	}
	if !kind.IsValid() {
		return decimal.Zero, domain.ErrInvalidEntryKind
	}
	return uc.balanceRepo.Sum(ctx, nil, BalanceFilter{Owner: owner, Kind: kind, AsOf: asOf})
}

// Spendable returns what the owner may spend: CASH for the Mission, CASH less
// PAYABLE for everyone else.
func (uc *BalanceUseCase) Spendable(ctx context.Context, owner domain.Owner, asOf *time.Time) (decimal.Decimal, error) {
	if err := owner.Validate(); err != nil {
		return decimal.Zero, err
	}
	return spendableOf(ctx, uc.balanceRepo, nil, owner, asOf)
}

// CanSpend reports whether spendable(owner) covers amount. It is advisory.
func (uc *BalanceUseCase) CanSpend(ctx context.Context, owner domain.Owner, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, domain.ErrInvalidAmount
	}
	spendable, err := uc.Spendable(ctx, owner, nil)
	if err != nil {
		return false, err
	}
	return spendable.GreaterThanOrEqual(amount), nil
}

// ReceivablesByCounterparty groups what others owe the owner.
func (uc *BalanceUseCase) ReceivablesByCounterparty(ctx context.Context, owner domain.Owner, asOf *time.Time) (map[domain.Owner]decimal.Decimal, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return uc.balanceRepo.ByCounterparty(ctx, nil, owner, domain.EntryKindReceivable, asOf)
}

// Position returns every balance of the owner at asOf.
func (uc *BalanceUseCase) Position(ctx context.Context, owner domain.Owner, asOf *time.Time) (*domain.Position, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	pos := &domain.Position{Owner: owner}
	g, gctx := errgroup.WithContext(ctx)

	legs := []struct {
		kind domain.EntryKind
		dst  *decimal.Decimal
	}{
		{domain.EntryKindCash, &pos.Cash},
		{domain.EntryKindReceivable, &pos.Receivable},
		{domain.EntryKindPayable, &pos.Payable},
	}
	for _, leg := range legs {
		leg := leg
		g.Go(func() error {
			v, err := uc.balanceRepo.Sum(gctx, nil, BalanceFilter{Owner: owner, Kind: leg.kind, AsOf: asOf})
			if err != nil {
				return err
			}
			*leg.dst = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pos.Spendable = domain.Spendable(owner, pos.Cash, pos.Payable)
	return pos, nil
}

// MonthlySummary reports the owner's movements within a period.
func (uc *BalanceUseCase) MonthlySummary(ctx context.Context, owner domain.Owner, period domain.Period) (*domain.MonthlySummary, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return monthlySummary(ctx, uc.balanceRepo, nil, owner, period)
}

func monthlySummary(ctx context.Context, repo BalanceRepository, tx Transaction, owner domain.Owner, period domain.Period) (*domain.MonthlySummary, error) {
	movements, count, err := repo.Movements(ctx, tx, owner, period.Start(), period.End())
	if err != nil {
		return nil, err
	}
	return domain.Summarize(owner, period, movements, count), nil
}

func spendableOf(ctx context.Context, repo BalanceRepository, tx Transaction, owner domain.Owner, asOf *time.Time) (decimal.Decimal, error) {
	cash, err := repo.Sum(ctx, tx, BalanceFilter{Owner: owner, Kind: domain.EntryKindCash, AsOf: asOf})
	if err != nil {
		return decimal.Zero, err
	}
	if owner.IsMission() {
		return cash, nil
	}

	payable, err := repo.Sum(ctx, tx, BalanceFilter{Owner: owner, Kind: domain.EntryKindPayable, AsOf: asOf})
	if err != nil {
		return decimal.Zero, err
	}
	return domain.Spendable(owner, cash, payable), nil
}
