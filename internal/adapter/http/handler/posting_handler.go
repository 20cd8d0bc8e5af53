package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/missionledger/internal/adapter/http/dto"
	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/usecase"
)

// PostingHandler handles posting-related HTTP requests.
type PostingHandler struct {
	postingUC *usecase.PostingUseCase
}

// NewPostingHandler creates a new PostingHandler.
func NewPostingHandler(postingUC *usecase.PostingUseCase) *PostingHandler {
	return &PostingHandler{postingUC: postingUC}
}

// eventRequest is a validated DTO convertible to a domain event.
type eventRequest[E any] interface {
	ToEvent() (E, error)
}

// create decodes a request, posts its event and writes the posting. A
// repeated source event answers 200 with the posting already on file.
func create[E any, R eventRequest[E]](
	w http.ResponseWriter,
	r *http.Request,
	req R,
	post func(context.Context, E) (*domain.Posting, error),
) {
	if err := decodeAndValidate(r, req); err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	ev, err := req.ToEvent()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	posting, err := post(r.Context(), ev)
	if errors.Is(err, domain.ErrDuplicateEntry) && posting != nil {
		writeJSON(w, http.StatusOK, dto.PostingFromDomain(posting))
		return
	}
	if err != nil {
		writeDomainError(w, "failed to create posting", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingFromDomain(posting))
}

// CreateContribution posts a verified contribution.
func (h *PostingHandler) CreateContribution(w http.ResponseWriter, r *http.Request) {
	create(w, r, &dto.ContributionRequest{}, h.postingUC.PostContribution)
}

// CreateRemittance posts a remittance.
func (h *PostingHandler) CreateRemittance(w http.ResponseWriter, r *http.Request) {
	create(w, r, &dto.RemittanceRequest{}, h.postingUC.PostRemittance)
}

// CreateExpenditure posts an expenditure.
func (h *PostingHandler) CreateExpenditure(w http.ResponseWriter, r *http.Request) {
	create(w, r, &dto.ExpenditureRequest{}, h.postingUC.PostExpenditure)
}

// CreateCommission posts a commission payout.
func (h *PostingHandler) CreateCommission(w http.ResponseWriter, r *http.Request) {
	create(w, r, &dto.CommissionRequest{}, h.postingUC.PostCommission)
}

// CreateDonation posts a donation to the Mission.
func (h *PostingHandler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	create(w, r, &dto.DonationRequest{}, h.postingUC.PostDonation)
}

// CreateOpeningBalance seeds a balance.
func (h *PostingHandler) CreateOpeningBalance(w http.ResponseWriter, r *http.Request) {
	create(w, r, &dto.BalanceRequest{}, h.postingUC.PostOpeningBalance)
}

// CreateAdjustment posts a manual correction.
func (h *PostingHandler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	create(w, r, &dto.BalanceRequest{}, h.postingUC.PostAdjustment)
}

// Reverse reverses a posting.
func (h *PostingHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing posting ID", "")
		return
	}

	var req dto.ReversePostingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	input, err := req.ToUseCaseInput(id)
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	reversal, err := h.postingUC.ReversePosting(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to reverse posting", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingFromDomain(reversal))
}

// Get retrieves a posting with its entries.
func (h *PostingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing posting ID", "")
		return
	}

	posting, err := h.postingUC.GetPosting(r.Context(), id)
	if err != nil {
		writeDomainError(w, "posting not found", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PostingFromDomain(posting))
}

// FindBySource retrieves the active posting of a source event.
func (h *PostingHandler) FindBySource(w http.ResponseWriter, r *http.Request) {
	kind := domain.SourceKind(r.URL.Query().Get("source_kind"))
	ref := r.URL.Query().Get("source_reference")
	if !kind.IsValid() || ref == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "source_kind and source_reference are required")
		return
	}

	posting, err := h.postingUC.GetPostingBySource(r.Context(), kind, ref)
	if err != nil {
		writeDomainError(w, "posting not found", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PostingFromDomain(posting))
}
