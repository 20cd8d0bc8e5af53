package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
)

// PostingRepository defines data access for postings and their entries.
type PostingRepository interface {
	// Create stores the posting header and all of its entries. A second ACTIVE
	// posting for the same source returns domain.ErrDuplicateEntry.
	Create(ctx context.Context, tx Transaction, posting *domain.Posting) error
	GetByID(ctx context.Context, id string) (*domain.Posting, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Posting, error)
	// GetActiveBySource returns nil, nil when the source has no active posting.
	// tx may be nil.
	GetActiveBySource(ctx context.Context, tx Transaction, kind domain.SourceKind, ref string) (*domain.Posting, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.PostingStatus) error
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	GetByPosting(ctx context.Context, postingID string) ([]*domain.Entry, error)
	GetByOwner(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.Entry, error)
	// MarkReversed flips an ACTIVE unlocked entry to REVERSED.
	MarkReversed(ctx context.Context, tx Transaction, id, reversedBy string) error
	// OpenPair returns ACTIVE unlocked entries between creditor and debtor:
	// creditor RECEIVABLE against debtor and debtor PAYABLE against creditor.
	OpenPair(ctx context.Context, tx Transaction, creditor, debtor domain.Owner) ([]*domain.Entry, error)
	MarkCleared(ctx context.Context, tx Transaction, ids []string) error
	// SetLocked sets is_locked on every entry of owner dated within [from, to].
	SetLocked(ctx context.Context, tx Transaction, owner domain.Owner, from, to time.Time, locked bool) (int64, error)
}

// BalanceFilter selects the posted entries a balance is summed over.
// A zero Counterparty matches any counterparty; a nil AsOf is unbounded.
type BalanceFilter struct {
	AsOf         *time.Time
	Owner        domain.Owner
	Counterparty domain.Owner
	Kind         domain.EntryKind
}

// BalanceRepository aggregates ACTIVE and CLEARED entries. tx may be nil to
// read committed data outside a transaction.
type BalanceRepository interface {
	Sum(ctx context.Context, tx Transaction, filter BalanceFilter) (decimal.Decimal, error)
	ByCounterparty(ctx context.Context, tx Transaction, owner domain.Owner, kind domain.EntryKind, asOf *time.Time) (map[domain.Owner]decimal.Decimal, error)
	Movements(ctx context.Context, tx Transaction, owner domain.Owner, from, to time.Time) ([]domain.Movement, int64, error)
}

// PeriodRepository defines data access for period closes.
type PeriodRepository interface {
	// Get returns nil, nil for a period that was never closed. tx may be nil.
	Get(ctx context.Context, tx Transaction, owner domain.Owner, period domain.Period) (*domain.PeriodClose, error)
	Upsert(ctx context.Context, tx Transaction, pc *domain.PeriodClose) error
	ListByOwner(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.PeriodClose, error)
}

// OwnerLocker serializes write transactions per owner.
type OwnerLocker interface {
	// LockOwners blocks until tx holds the lock of every owner. Owners must be
	// passed in domain.SortOwners order.
	LockOwners(ctx context.Context, tx Transaction, owners []domain.Owner) error
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalReceivable, totalPayable decimal.Decimal, err error)
	PairBalances(ctx context.Context) ([]domain.PairBalance, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// MetricsRecorder receives ledger outcomes.
type MetricsRecorder interface {
	PostingRecorded(kind domain.SourceKind, outcome string, elapsed time.Duration)
	PostingReversed(outcome string)
	PeriodTransition(status domain.PeriodStatus, outcome string)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request failed so the client may retry it.
	Release(ctx context.Context, key string) error
}
