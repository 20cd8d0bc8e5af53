package domain

import (
	"errors"
	"fmt"
)

var (
	// Posting errors
	ErrDuplicateEntry           = errors.New("entries already posted for this source")
	ErrUnbalancedBundle         = errors.New("entry bundle does not reconcile")
	ErrPostingNotFound          = errors.New("posting not found")
	ErrAlreadyReversed          = errors.New("posting already reversed")
	ErrEntryCleared             = errors.New("posting has cleared entries")
	ErrEntryLocked              = errors.New("posting has locked entries")
	ErrRemittanceExceedsPayable = errors.New("remittance exceeds outstanding payable")
	ErrInsufficientFunds        = errors.New("insufficient spendable funds")

	// Input errors
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidOwner      = errors.New("invalid owner")
	ErrInvalidEntryKind  = errors.New("invalid entry kind")
	ErrInvalidAllocation = errors.New("allocation must sum to 100")
	ErrMissingHierarchy  = errors.New("allocation requires a hierarchy level that was not supplied")
	ErrMissingSource     = errors.New("source reference is required")
	ErrMissingDate       = errors.New("date is required")

	// Period errors
	ErrPeriodLocked        = errors.New("period locked")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrPeriodInFuture      = errors.New("period is in the future")
	ErrPeriodAlreadyClosed = errors.New("period already closed")
	ErrPeriodNotClosed     = errors.New("period is not closed")
	ErrActorRequired       = errors.New("actor is required")
)

// PeriodLockedError reports a write into a closed period. It matches ErrPeriodLocked.
type PeriodLockedError struct {
	Owner  Owner
	Period Period
}

func (e *PeriodLockedError) Error() string {
	return fmt.Sprintf("period locked: %s %s", e.Owner, e.Period)
}

// Is lets errors.Is(err, ErrPeriodLocked) match.
func (e *PeriodLockedError) Is(target error) bool {
	return target == ErrPeriodLocked
}
