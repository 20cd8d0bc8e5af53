package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall   = errors.New("amount below minimum allowed")
	ErrAmountPrecision  = errors.New("amount has more than two decimal places")
	ErrMetadataTooLarge = errors.New("metadata size exceeds limit")
	ErrSourceTooLong    = errors.New("source reference too long")
)

// Validation constants
const (
	MaxSourceReferenceLength = 255
	MaxMetadataSize          = 10240           // 10KB
	MaxAmount                = "1000000000000" // 1 trillion
	MinAmount                = "0.01"
)

// ValidateAmount validates a positive event amount in cents.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	if !amount.Equal(amount.Round(2)) {
		return ErrAmountPrecision
	}

	return nil
}

// ValidateSignedAmount validates a nonzero amount that may be negative.
func ValidateSignedAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}
	return ValidateAmount(amount.Abs())
}

// ValidateSourceReference validates the idempotency reference of an event.
func ValidateSourceReference(ref string) error {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return ErrMissingSource
	}

	if len(ref) > MaxSourceReferenceLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrSourceTooLong, MaxSourceReferenceLength)
	}

	return nil
}

// ValidateMetadata validates metadata size
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("%w: metadata size %d bytes exceeds limit of %d bytes", ErrMetadataTooLarge, size, MaxMetadataSize)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
