package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// Outcome labels reported to MetricsRecorder.
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeLocked    = "period_locked"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)
