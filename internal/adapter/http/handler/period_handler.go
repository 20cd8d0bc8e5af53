package handler

import (
	"context"
	"net/http"

	"github.com/iho/missionledger/internal/adapter/http/dto"
	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/usecase"
)

// PeriodHandler handles monthly close and reopen.
type PeriodHandler struct {
	periodUC *usecase.PeriodUseCase
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodUC *usecase.PeriodUseCase) *PeriodHandler {
	return &PeriodHandler{periodUC: periodUC}
}

// Get returns the close state of one owner period.
func (h *PeriodHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}
	period, err := periodParams(r)
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	pc, err := h.periodUC.GetPeriod(r.Context(), owner, period)
	if err != nil {
		writeDomainError(w, "failed to get period", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodFromDomain(pc))
}

// List returns the close history of an owner, newest first.
func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}

	periods, err := h.periodUC.ListPeriods(r.Context(), usecase.ListPeriodsInput{
		Owner:  owner,
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list periods", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodsFromDomain(periods))
}

// Close closes an owner period.
func (h *PeriodHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.periodUC.ClosePeriod, "failed to close period")
}

// Reopen reopens a closed owner period.
func (h *PeriodHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.periodUC.ReopenPeriod, "failed to reopen period")
}

func (h *PeriodHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, in usecase.PeriodInput) (*domain.PeriodClose, error),
	failure string,
) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}
	period, err := periodParams(r)
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	var req dto.PeriodActionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	pc, err := apply(r.Context(), usecase.PeriodInput{Owner: owner, Period: period, Actor: req.Actor})
	if err != nil {
		writeDomainError(w, failure, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodFromDomain(pc))
}
