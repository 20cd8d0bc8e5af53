package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/missionledger/internal/adapter/http/dto"
	"github.com/iho/missionledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err and writes it. Validation failures carry their
// field list.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   message,
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
		return
	}
	writeError(w, mapDomainError(err), message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrPostingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPeriodLocked),
		errors.Is(err, domain.ErrPeriodAlreadyClosed),
		errors.Is(err, domain.ErrPeriodNotClosed),
		errors.Is(err, domain.ErrAlreadyReversed),
		errors.Is(err, domain.ErrEntryCleared),
		errors.Is(err, domain.ErrEntryLocked),
		errors.Is(err, domain.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnbalancedBundle),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrRemittanceExceedsPayable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidOwner),
		errors.Is(err, domain.ErrInvalidEntryKind),
		errors.Is(err, domain.ErrInvalidAllocation),
		errors.Is(err, domain.ErrMissingHierarchy),
		errors.Is(err, domain.ErrMissingSource),
		errors.Is(err, domain.ErrMissingDate),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrPeriodInFuture),
		errors.Is(err, domain.ErrActorRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate reads a JSON body into req and runs its validate tags.
func decodeAndValidate(r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return &dto.ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	return dto.Validate(req)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// ownerParam parses the {owner} path segment.
func ownerParam(r *http.Request) (domain.Owner, error) {
	return domain.ParseOwner(chi.URLParam(r, "owner"))
}

// periodParams parses the {year} and {month} path segments.
func periodParams(r *http.Request) (domain.Period, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return domain.Period{}, fmt.Errorf("%w: year %q", domain.ErrInvalidPeriod, chi.URLParam(r, "year"))
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return domain.Period{}, fmt.Errorf("%w: month %q", domain.ErrInvalidPeriod, chi.URLParam(r, "month"))
	}
	return domain.NewPeriod(year, month)
}

// asOfQuery parses the optional as_of date. Absent means all time.
func asOfQuery(r *http.Request) (*time.Time, error) {
	val := r.URL.Query().Get("as_of")
	if val == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(val)
	if err != nil {
		return nil, &dto.ValidationError{Fields: map[string]string{"as_of": "datetime=" + dto.DateLayout}}
	}
	return &t, nil
}

func formatAsOf(asOf *time.Time) string {
	if asOf == nil {
		return ""
	}
	return asOf.Format(dto.DateLayout)
}
