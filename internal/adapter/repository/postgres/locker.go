package postgres

import (
	"context"
	"fmt"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/infrastructure/postgres/generated"
	"github.com/iho/missionledger/internal/usecase"
)

// OwnerLocker implements usecase.OwnerLocker with transaction-scoped advisory
// locks, released on commit or rollback.
type OwnerLocker struct{}

// NewOwnerLocker creates a new OwnerLocker.
func NewOwnerLocker() *OwnerLocker {
	return &OwnerLocker{}
}

// LockOwners acquires the advisory lock of every owner in the order given.
func (l *OwnerLocker) LockOwners(ctx context.Context, tx usecase.Transaction, owners []domain.Owner) error {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return err
	}
	queries := generated.New(pgxTx)

	for _, o := range owners {
		if err := queries.AcquireOwnerLock(ctx, ownerLockKey(o)); err != nil {
			return fmt.Errorf("lock %s: %w", o, err)
		}
	}

	return nil
}

func ownerLockKey(o domain.Owner) string {
	return "owner:" + o.String()
}
