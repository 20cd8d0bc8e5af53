package usecase

import (
	"context"

	"github.com/iho/missionledger/internal/domain"
)

// EntryUseCase handles entry read operations.
type EntryUseCase struct {
	entryRepo EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		entryRepo: entryRepo,
	}
}

// GetEntriesByOwnerInput represents input for listing an owner's entries.
type GetEntriesByOwnerInput struct {
	Owner  domain.Owner
	Limit  int
	Offset int
}

// GetEntriesByOwner lists an owner's entries ordered by entry date then
// insertion order.
func (uc *EntryUseCase) GetEntriesByOwner(ctx context.Context, input GetEntriesByOwnerInput) ([]*domain.Entry, error) {
	if err := input.Owner.Validate(); err != nil {
		return nil, err
	}

	if input.Limit <= 0 {
		input.Limit = 50
	}

	if input.Limit > 1000 {
		input.Limit = 1000
	}

	return uc.entryRepo.GetByOwner(ctx, input.Owner, input.Limit, input.Offset)
}

// GetEntriesByPosting returns all entries of a posting.
func (uc *EntryUseCase) GetEntriesByPosting(ctx context.Context, postingID string) ([]*domain.Entry, error) {
	return uc.entryRepo.GetByPosting(ctx, postingID)
}
