package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/usecase"
	"dental-referral-tracker/pkg/response"

	"github.com/gorilla/mux"
)

// writeUsecaseError maps usecase error kinds to HTTP responses.
// Store and refresh failures are transient and reported as 503.
func writeUsecaseError(w http.ResponseWriter, err error, fallback string) {
	var (
		validationErr *usecase.ValidationError
		notFoundErr   *usecase.NotFoundError
	)

	switch {
	case errors.Is(err, usecase.ErrDuplicateUsername):
		response.Error(w, http.StatusConflict, "Username already exists", nil)
	case errors.As(err, &validationErr):
		response.ValidationError(w, map[string]string{validationErr.Field: validationErr.Reason})
	case errors.As(err, &notFoundErr):
		response.NotFound(w, notFoundErr.Error())
	case errors.Is(err, usecase.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid username or password")
	case errors.Is(err, usecase.ErrInvalidToken), errors.Is(err, usecase.ErrTokenRevoked):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, usecase.ErrStore), errors.Is(err, usecase.ErrSync):
		response.ServiceUnavailable(w, "")
	default:
		response.InternalServerError(w, fallback)
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter within [min, max].
// An absent parameter yields 0.
func queryInt(q url.Values, key string, min, max int64, errs map[string]string) int64 {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < min || v > max {
		errs[key] = "Invalid " + key
		return 0
	}
	return v
}

func parseUnscheduledFilter(q url.Values) (dto.UnscheduledFilter, map[string]string) {
	errs := make(map[string]string)
	filter := dto.UnscheduledFilter{
		Month: int(queryInt(q, "month", 1, 12, errs)),
		Year:  int(queryInt(q, "year", 1, 9999, errs)),
	}
	return filter, errs
}

func parseScheduledFilter(q url.Values) (dto.ScheduledFilter, map[string]string) {
	errs := make(map[string]string)
	filter := dto.ScheduledFilter{
		Month:     int(queryInt(q, "month", 1, 12, errs)),
		Year:      int(queryInt(q, "year", 1, 9999, errs)),
		DentistID: queryInt(q, "dentist_id", 1, 1<<62, errs),
		Search:    strings.TrimSpace(q.Get("search")),
	}

	payment, ok := entity.ParsePaymentState(q.Get("payment"))
	if !ok {
		errs["payment"] = "payment must be one of: unpaid paidOnTheSpot paid"
	}
	filter.Payment = payment

	return filter, errs
}

func listMeta(total int, stale bool) *response.Meta {
	return &response.Meta{Total: total, Stale: stale}
}
