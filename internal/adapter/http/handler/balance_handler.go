package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/iho/missionledger/internal/adapter/http/dto"
	"github.com/iho/missionledger/internal/domain"
	"github.com/iho/missionledger/internal/usecase"
)

// BalanceHandler serves per-owner balance queries.
type BalanceHandler struct {
	balanceUC *usecase.BalanceUseCase
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC *usecase.BalanceUseCase) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC}
}

// Balance returns one balance kind of an owner, optionally as of a date.
func (h *BalanceHandler) Balance(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}

	kind := domain.EntryKind(r.URL.Query().Get("entry_kind"))
	if kind == "" {
		kind = domain.EntryKindCash
	}

	asOf, err := asOfQuery(r)
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	balance, err := h.balanceUC.Balance(r.Context(), owner, kind, asOf)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		Owner:   owner.String(),
		Kind:    string(kind),
		Balance: balance,
		AsOf:    formatAsOf(asOf),
	})
}

// Position returns cash, receivable, payable and spendable together.
func (h *BalanceHandler) Position(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}

	asOf, err := asOfQuery(r)
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	pos, err := h.balanceUC.Position(r.Context(), owner, asOf)
	if err != nil {
		writeDomainError(w, "failed to get position", err)
		return
	}

	writeJSON(w, http.StatusOK, pos)
}

// Spendable returns what an owner may spend.
func (h *BalanceHandler) Spendable(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}

	asOf, err := asOfQuery(r)
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	spendable, err := h.balanceUC.Spendable(r.Context(), owner, asOf)
	if err != nil {
		writeDomainError(w, "failed to get spendable", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SpendableResponse{
		Owner:     owner.String(),
		Spendable: spendable,
		AsOf:      formatAsOf(asOf),
	})
}

// CanSpend reports whether an owner may spend amount now.
func (h *BalanceHandler) CanSpend(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}

	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	ok, err := h.balanceUC.CanSpend(r.Context(), owner, amount)
	if err != nil {
		writeDomainError(w, "failed to check spendable", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"owner":     owner.String(),
		"amount":    amount,
		"can_spend": ok,
	})
}

// Receivables lists the open receivables of an owner by counterparty.
func (h *BalanceHandler) Receivables(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}

	asOf, err := asOfQuery(r)
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	byCounterparty, err := h.balanceUC.ReceivablesByCounterparty(r.Context(), owner, asOf)
	if err != nil {
		writeDomainError(w, "failed to get receivables", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CounterpartiesFromMap(byCounterparty))
}

// Summary returns the live monthly summary of an owner.
func (h *BalanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		writeDomainError(w, "invalid owner", err)
		return
	}

	year, yerr := strconv.Atoi(r.URL.Query().Get("year"))
	month, merr := strconv.Atoi(r.URL.Query().Get("month"))
	if yerr != nil || merr != nil {
		writeError(w, http.StatusBadRequest, "invalid period", "year and month are required")
		return
	}
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	summary, err := h.balanceUC.MonthlySummary(r.Context(), owner, period)
	if err != nil {
		writeDomainError(w, "failed to get summary", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
