package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/missionledger/internal/adapter/http/dto"
	"github.com/iho/missionledger/internal/usecase"
)

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC *usecase.EntryUseCase
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC *usecase.EntryUseCase) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// ListByOwner lists entries of an owner.
func (h *EntryHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.entryUC.GetEntriesByOwner(r.Context(), usecase.GetEntriesByOwnerInput{
		Owner:  owner,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// ListByPosting lists entries of a posting.
func (h *EntryHandler) ListByPosting(w http.ResponseWriter, r *http.Request) {
	postingID := chi.URLParam(r, "id")
	if postingID == "" {
		writeError(w, http.StatusBadRequest, "missing posting ID", "")
		return
	}

	entries, err := h.entryUC.GetEntriesByPosting(r.Context(), postingID)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
