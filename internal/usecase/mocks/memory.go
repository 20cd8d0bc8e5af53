package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/usecase"
)

// ErrNoTransaction is returned by writes attempted outside a transaction.
var ErrNoTransaction = errors.New("memory ledger: write outside transaction")

type ledgerState struct {
	postings map[string]*domain.Posting
	entries  []*domain.Entry
	periods  map[domain.OwnerPeriod]*domain.PeriodClose
	events   []*domain.OutboxEvent
}

func newLedgerState() *ledgerState {
	return &ledgerState{
		postings: make(map[string]*domain.Posting),
		periods:  make(map[domain.OwnerPeriod]*domain.PeriodClose),
	}
}

func (s *ledgerState) clone() *ledgerState {
	c := newLedgerState()
	for id, p := range s.postings {
		c.postings[id] = clonePosting(p)
	}
	c.entries = make([]*domain.Entry, len(s.entries))
	for i, e := range s.entries {
		c.entries[i] = cloneEntry(e)
	}
	for k, pc := range s.periods {
		cp := *pc
		c.periods[k] = &cp
	}
	c.events = make([]*domain.OutboxEvent, len(s.events))
	for i, ev := range s.events {
		cp := *ev
		c.events[i] = &cp
	}
	return c
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	cp := *e
	if e.ReversedBy != nil {
		v := *e.ReversedBy
		cp.ReversedBy = &v
	}
	return &cp
}

func clonePosting(p *domain.Posting) *domain.Posting {
	cp := *p
	cp.Entries = nil
	if p.ReversalOf != nil {
		v := *p.ReversalOf
		cp.ReversalOf = &v
	}
	if p.Metadata != nil {
		cp.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// MemoryLedger is an in-memory transactional store implementing the ledger
// repositories. Transactions are serialized; each works on a private copy
// that replaces the committed state on Commit. Reads without a transaction
// see committed state only.
type MemoryLedger struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *ledgerState

	hookMu sync.Mutex
	hooks  map[string]error

	// LockedOwners records every LockOwners call in order.
	LockedOwners [][]domain.Owner
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{st: newLedgerState(), hooks: make(map[string]error)}
}

// FailOn makes the named operation (e.g. "PostingRepository.Create") return
// err until cleared with a nil err.
func (l *MemoryLedger) FailOn(op string, err error) {
	l.hookMu.Lock()
	defer l.hookMu.Unlock()
	if err == nil {
		delete(l.hooks, op)
		return
	}
	l.hooks[op] = err
}

func (l *MemoryLedger) fail(op string) error {
	l.hookMu.Lock()
	defer l.hookMu.Unlock()
	return l.hooks[op]
}

type memTx struct {
	l    *MemoryLedger
	st   *ledgerState
	done bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("memory ledger: transaction already closed")
	}
	if err := t.l.fail("Transaction.Commit"); err != nil {
		return err
	}
	t.l.mu.Lock()
	t.l.st = t.st
	t.l.mu.Unlock()
	t.done = true
	t.l.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.l.txMu.Unlock()
	return nil
}

// Begin starts a transaction; it blocks while another one is open.
func (l *MemoryLedger) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := l.fail("TransactionManager.Begin"); err != nil {
		return nil, err
	}
	l.txMu.Lock()
	l.mu.RLock()
	st := l.st.clone()
	l.mu.RUnlock()
	return &memTx{l: l, st: st}, nil
}

func (l *MemoryLedger) read(tx usecase.Transaction) (*ledgerState, func()) {
	if t, ok := tx.(*memTx); ok && t != nil {
		return t.st, func() {}
	}
	l.mu.RLock()
	return l.st, l.mu.RUnlock
}

func (l *MemoryLedger) write(tx usecase.Transaction) (*ledgerState, error) {
	t, ok := tx.(*memTx)
	if !ok || t == nil || t.done {
		return nil, ErrNoTransaction
	}
	return t.st, nil
}

// LockOwners records the owners; transactions are already serialized.
func (l *MemoryLedger) LockOwners(ctx context.Context, tx usecase.Transaction, owners []domain.Owner) error {
	if err := l.fail("OwnerLocker.LockOwners"); err != nil {
		return err
	}
	if _, err := l.write(tx); err != nil {
		return err
	}
	l.hookMu.Lock()
	l.LockedOwners = append(l.LockedOwners, append([]domain.Owner(nil), owners...))
	l.hookMu.Unlock()
	return nil
}

// --- PostingRepository ---

func (l *MemoryLedger) Create(ctx context.Context, tx usecase.Transaction, posting *domain.Posting) error {
	if err := l.fail("PostingRepository.Create"); err != nil {
		return err
	}
	st, err := l.write(tx)
	if err != nil {
		return err
	}

	if posting.Status == domain.PostingStatusActive {
		for _, p := range st.postings {
			if p.Status == domain.PostingStatusActive && p.SourceKind == posting.SourceKind && p.SourceReference == posting.SourceReference {
				return domain.ErrDuplicateEntry
			}
		}
	}

	st.postings[posting.ID] = clonePosting(posting)
	for _, e := range posting.Entries {
		st.entries = append(st.entries, cloneEntry(e))
	}
	return nil
}

func (l *MemoryLedger) GetByID(ctx context.Context, id string) (*domain.Posting, error) {
	st, done := l.read(nil)
	defer done()
	return st.posting(id)
}

func (l *MemoryLedger) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Posting, error) {
	st, err := l.write(tx)
	if err != nil {
		return nil, err
	}
	return st.posting(id)
}

func (l *MemoryLedger) GetActiveBySource(ctx context.Context, tx usecase.Transaction, kind domain.SourceKind, ref string) (*domain.Posting, error) {
	st, done := l.read(tx)
	defer done()

	for id, p := range st.postings {
		if p.Status == domain.PostingStatusActive && p.SourceKind == kind && p.SourceReference == ref {
			return st.posting(id)
		}
	}
	return nil, nil
}

func (l *MemoryLedger) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.PostingStatus) error {
	st, err := l.write(tx)
	if err != nil {
		return err
	}
	p, ok := st.postings[id]
	if !ok {
		return domain.ErrPostingNotFound
	}
	p.Status = status
	return nil
}

func (s *ledgerState) posting(id string) (*domain.Posting, error) {
	p, ok := s.postings[id]
	if !ok {
		return nil, domain.ErrPostingNotFound
	}
	out := clonePosting(p)
	for _, e := range s.entries {
		if e.PostingID == id {
			out.Entries = append(out.Entries, cloneEntry(e))
		}
	}
	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].Leg < out.Entries[j].Leg })
	return out, nil
}

// --- EntryRepository ---

func (l *MemoryLedger) GetByPosting(ctx context.Context, postingID string) ([]*domain.Entry, error) {
	st, done := l.read(nil)
	defer done()

	p, err := st.posting(postingID)
	if err != nil {
		return nil, err
	}
	return p.Entries, nil
}

func (l *MemoryLedger) GetByOwner(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.Entry, error) {
	st, done := l.read(nil)
	defer done()

	var matched []*domain.Entry
	for _, e := range st.entries {
		if e.Owner == owner {
			matched = append(matched, cloneEntry(e))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].EntryDate.Before(matched[j].EntryDate) })

	if offset >= len(matched) {
		return []*domain.Entry{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (l *MemoryLedger) MarkReversed(ctx context.Context, tx usecase.Transaction, id, reversedBy string) error {
	st, err := l.write(tx)
	if err != nil {
		return err
	}
	for _, e := range st.entries {
		if e.ID != id {
			continue
		}
		if e.IsLocked || e.Status != domain.EntryStatusActive {
			return domain.ErrEntryLocked
		}
		e.Status = domain.EntryStatusReversed
		rb := reversedBy
		e.ReversedBy = &rb
		return nil
	}
	return domain.ErrEntryLocked
}

func (l *MemoryLedger) OpenPair(ctx context.Context, tx usecase.Transaction, creditor, debtor domain.Owner) ([]*domain.Entry, error) {
	st, done := l.read(tx)
	defer done()

	var out []*domain.Entry
	for _, e := range st.entries {
		if e.Status != domain.EntryStatusActive || e.IsLocked {
			continue
		}
		if (e.Kind == domain.EntryKindReceivable && e.Owner == creditor && e.Counterparty == debtor) ||
			(e.Kind == domain.EntryKindPayable && e.Owner == debtor && e.Counterparty == creditor) {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

func (l *MemoryLedger) MarkCleared(ctx context.Context, tx usecase.Transaction, ids []string) error {
	st, err := l.write(tx)
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for _, e := range st.entries {
		if _, ok := set[e.ID]; ok && e.Status == domain.EntryStatusActive {
			e.Status = domain.EntryStatusCleared
		}
	}
	return nil
}

func (l *MemoryLedger) SetLocked(ctx context.Context, tx usecase.Transaction, owner domain.Owner, from, to time.Time, locked bool) (int64, error) {
	st, err := l.write(tx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, e := range st.entries {
		if e.Owner == owner && inRange(e.EntryDate, from, to) {
			e.IsLocked = locked
			n++
		}
	}
	return n, nil
}

func inRange(d, from, to time.Time) bool {
	d = domain.DateOf(d)
	return !d.Before(domain.DateOf(from)) && !d.After(domain.DateOf(to))
}

// --- BalanceRepository ---

func (l *MemoryLedger) Sum(ctx context.Context, tx usecase.Transaction, filter usecase.BalanceFilter) (decimal.Decimal, error) {
	if err := l.fail("BalanceRepository.Sum"); err != nil {
		return decimal.Zero, err
	}
	st, done := l.read(tx)
	defer done()

	total := decimal.Zero
	for _, e := range st.entries {
		if !e.Status.Posted() || e.Owner != filter.Owner || e.Kind != filter.Kind {
			continue
		}
		if !filter.Counterparty.IsZero() && e.Counterparty != filter.Counterparty {
			continue
		}
		if filter.AsOf != nil && domain.DateOf(e.EntryDate).After(domain.DateOf(*filter.AsOf)) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (l *MemoryLedger) ByCounterparty(ctx context.Context, tx usecase.Transaction, owner domain.Owner, kind domain.EntryKind, asOf *time.Time) (map[domain.Owner]decimal.Decimal, error) {
	st, done := l.read(tx)
	defer done()

	out := make(map[domain.Owner]decimal.Decimal)
	for _, e := range st.entries {
		if !e.Status.Posted() || e.Owner != owner || e.Kind != kind {
			continue
		}
		if asOf != nil && domain.DateOf(e.EntryDate).After(domain.DateOf(*asOf)) {
			continue
		}
		out[e.Counterparty] = out[e.Counterparty].Add(e.Amount)
	}
	for cp, v := range out {
		if v.IsZero() {
			delete(out, cp)
		}
	}
	return out, nil
}

func (l *MemoryLedger) Movements(ctx context.Context, tx usecase.Transaction, owner domain.Owner, from, to time.Time) ([]domain.Movement, int64, error) {
	st, done := l.read(tx)
	defer done()

	type key struct {
		kind   domain.EntryKind
		source domain.SourceKind
	}
	groups := make(map[key]*domain.Movement)
	var keys []key
	var count int64

	for _, e := range st.entries {
		if !e.Status.Posted() || e.Owner != owner || !inRange(e.EntryDate, from, to) {
			continue
		}
		count++
		k := key{e.Kind, e.SourceKind}
		m, ok := groups[k]
		if !ok {
			m = &domain.Movement{Kind: e.Kind, SourceKind: e.SourceKind, Inflow: decimal.Zero, Outflow: decimal.Zero}
			groups[k] = m
			keys = append(keys, k)
		}
		if e.Amount.IsPositive() {
			m.Inflow = m.Inflow.Add(e.Amount)
		} else {
			m.Outflow = m.Outflow.Add(e.Amount.Neg())
		}
	}

	out := make([]domain.Movement, 0, len(keys))
	for _, k := range keys {
		out = append(out, *groups[k])
	}
	return out, count, nil
}

// --- PeriodRepository ---

func (l *MemoryLedger) Get(ctx context.Context, tx usecase.Transaction, owner domain.Owner, period domain.Period) (*domain.PeriodClose, error) {
	st, done := l.read(tx)
	defer done()

	pc, ok := st.periods[domain.OwnerPeriod{Owner: owner, Period: period}]
	if !ok {
		return nil, nil
	}
	cp := *pc
	return &cp, nil
}

func (l *MemoryLedger) Upsert(ctx context.Context, tx usecase.Transaction, pc *domain.PeriodClose) error {
	st, err := l.write(tx)
	if err != nil {
		return err
	}
	cp := *pc
	st.periods[domain.OwnerPeriod{Owner: pc.Owner, Period: pc.Period}] = &cp
	return nil
}

func (l *MemoryLedger) ListByOwner(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.PeriodClose, error) {
	st, done := l.read(nil)
	defer done()

	var out []*domain.PeriodClose
	for k, pc := range st.periods {
		if k.Owner == owner {
			cp := *pc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Period.Before(out[i].Period) })

	if offset >= len(out) {
		return []*domain.PeriodClose{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

// --- LedgerRepository ---

func (l *MemoryLedger) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	if err := l.fail("LedgerRepository.CheckConsistency"); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	st, done := l.read(nil)
	defer done()

	receivable, payable := decimal.Zero, decimal.Zero
	for _, e := range st.entries {
		if !e.Status.Posted() {
			continue
		}
		switch e.Kind {
		case domain.EntryKindReceivable:
			receivable = receivable.Add(e.Amount)
		case domain.EntryKindPayable:
			payable = payable.Add(e.Amount)
		}
	}
	return receivable, payable, nil
}

func (l *MemoryLedger) PairBalances(ctx context.Context) ([]domain.PairBalance, error) {
	st, done := l.read(nil)
	defer done()

	type key struct{ creditor, debtor domain.Owner }
	pairs := make(map[key]*domain.PairBalance)
	var keys []key

	for _, e := range st.entries {
		if !e.Status.Posted() || !e.Kind.NeedsCounterparty() {
			continue
		}
		k := key{e.Owner, e.Counterparty}
		if e.Kind == domain.EntryKindPayable {
			k = key{e.Counterparty, e.Owner}
		}
		pb, ok := pairs[k]
		if !ok {
			pb = &domain.PairBalance{Creditor: k.creditor, Debtor: k.debtor, Receivable: decimal.Zero, Payable: decimal.Zero}
			pairs[k] = pb
			keys = append(keys, k)
		}
		if e.Kind == domain.EntryKindReceivable {
			pb.Receivable = pb.Receivable.Add(e.Amount)
		} else {
			pb.Payable = pb.Payable.Add(e.Amount)
		}
	}

	out := make([]domain.PairBalance, 0, len(keys))
	for _, k := range keys {
		out = append(out, *pairs[k])
	}
	return out, nil
}

// --- test helpers ---

// Entries returns a copy of every committed entry in insertion order.
func (l *MemoryLedger) Entries() []*domain.Entry {
	st, done := l.read(nil)
	defer done()

	out := make([]*domain.Entry, len(st.entries))
	for i, e := range st.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

// Events returns a copy of every committed outbox event.
func (l *MemoryLedger) Events() []*domain.OutboxEvent {
	st, done := l.read(nil)
	defer done()

	out := make([]*domain.OutboxEvent, len(st.events))
	for i, ev := range st.events {
		cp := *ev
		out[i] = &cp
	}
	return out
}

// Outbox returns the outbox view of the ledger.
func (l *MemoryLedger) Outbox() *MemoryOutbox {
	return &MemoryOutbox{l: l}
}

// MemoryOutbox implements usecase.OutboxRepository on a MemoryLedger.
type MemoryOutbox struct {
	l *MemoryLedger
}

func (o *MemoryOutbox) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if err := o.l.fail("OutboxRepository.Create"); err != nil {
		return err
	}
	st, err := o.l.write(tx)
	if err != nil {
		return err
	}
	cp := *event
	st.events = append(st.events, &cp)
	return nil
}

func (o *MemoryOutbox) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	st, done := o.l.read(nil)
	defer done()

	var out []*domain.OutboxEvent
	for _, ev := range st.events {
		if !ev.Published && len(out) < limit {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (o *MemoryOutbox) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	o.l.txMu.Lock()
	defer o.l.txMu.Unlock()
	o.l.mu.Lock()
	defer o.l.mu.Unlock()

	for _, ev := range o.l.st.events {
		if ev.ID == id {
			ev.Published = true
			at := publishedAt
			ev.PublishedAt = &at
		}
	}
	return nil
}

func (o *MemoryOutbox) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	st, done := o.l.read(nil)
	defer done()

	var out []*domain.OutboxEvent
	for _, ev := range st.events {
		if ev.AggregateType == aggregateType && ev.AggregateID == aggregateID {
			cp := *ev
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return []*domain.OutboxEvent{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (o *MemoryOutbox) DeletePublished(ctx context.Context, before time.Time) error {
	o.l.txMu.Lock()
	defer o.l.txMu.Unlock()
	o.l.mu.Lock()
	defer o.l.mu.Unlock()

	kept := o.l.st.events[:0]
	for _, ev := range o.l.st.events {
		if ev.Published && ev.PublishedAt != nil && ev.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, ev)
	}
	o.l.st.events = kept
	return nil
}
