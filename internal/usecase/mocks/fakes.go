package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/missionledger/internal/domain"
)

// SequenceIDGenerator returns id-000001, id-000002, ...
type SequenceIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewSequenceIDGenerator() *SequenceIDGenerator {
	return &SequenceIDGenerator{}
}

func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%06d", g.counter)
}

// RecordingMetrics counts reported outcomes.
type RecordingMetrics struct {
	mu       sync.Mutex
	Postings map[string]int
	Reversal map[string]int
	Periods  map[string]int
}

func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{
		Postings: make(map[string]int),
		Reversal: make(map[string]int),
		Periods:  make(map[string]int),
	}
}

func (m *RecordingMetrics) PostingRecorded(kind domain.SourceKind, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Postings[string(kind)+"/"+outcome]++
}

func (m *RecordingMetrics) PostingReversed(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reversal[outcome]++
}

func (m *RecordingMetrics) PeriodTransition(status domain.PeriodStatus, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Periods[string(status)+"/"+outcome]++
}

// Count returns a counter value under the lock.
func (m *RecordingMetrics) Count(counter map[string]int, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return counter[key]
}

// RetryOnce re-runs an operation once when it fails with Retryable.
type RetryOnce struct {
	Retryable error
	Calls     int
}

func (r *RetryOnce) Retry(_ context.Context, operation func() error) error {
	r.Calls++
	err := operation()
	if err != nil && err == r.Retryable {
		r.Calls++
		return operation()
	}
	return err
}

// MemoryIdempotencyStore is an in-memory IdempotencyStore.
type MemoryIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MemoryIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MemoryIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Get returns the stored value of key.
func (m *MemoryIdempotencyStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}
