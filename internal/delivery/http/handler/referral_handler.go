package handler

import (
	"encoding/json"
	"net/http"

	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/delivery/http/middleware"
	"dental-referral-tracker/internal/usecase"
	"dental-referral-tracker/pkg/response"
	"dental-referral-tracker/pkg/validator"
)

type ReferralHandler struct {
	referralUsecase usecase.ReferralUsecase
	validator       *validator.CustomValidator
}

func NewReferralHandler(referralUsecase usecase.ReferralUsecase, validator *validator.CustomValidator) *ReferralHandler {
	return &ReferralHandler{
		referralUsecase: referralUsecase,
		validator:       validator,
	}
}

// CreateReferral registers a new referral
// @Summary Register referral
// @Tags Referrals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateReferralRequest true "Referral"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /referrals [post]
func (h *ReferralHandler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CreateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	referral, err := h.referralUsecase.Create(r.Context(), staffID, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create referral")
		return
	}

	response.Success(w, http.StatusCreated, "Referral created successfully", referral)
}

func (h *ReferralHandler) UpdateReferral(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid referral ID")
		return
	}

	var req dto.UpdateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	referral, err := h.referralUsecase.UpdateDetails(r.Context(), staffID, id, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to update referral")
		return
	}

	response.Success(w, http.StatusOK, "Referral updated successfully", referral)
}

// ScheduleReferral moves a referral to scheduled
// @Summary Schedule referral
// @Tags Referrals
// @Security BearerAuth
// @Produce json
// @Param id path int true "Referral ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /referrals/{id}/schedule [post]
func (h *ReferralHandler) ScheduleReferral(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid referral ID")
		return
	}

	referral, err := h.referralUsecase.Schedule(r.Context(), staffID, id)
	if err != nil {
		writeUsecaseError(w, err, "Failed to schedule referral")
		return
	}

	response.Success(w, http.StatusOK, "Referral scheduled successfully", referral)
}

// RecordPayment marks a scheduled referral as paid
// @Summary Record payment
// @Tags Referrals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Referral ID"
// @Param request body dto.RecordPaymentRequest true "Payment"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /referrals/{id}/payment [post]
func (h *ReferralHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid referral ID")
		return
	}

	var req dto.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	referral, err := h.referralUsecase.RecordPayment(r.Context(), staffID, id, req.PaymentMonth)
	if err != nil {
		writeUsecaseError(w, err, "Failed to record payment")
		return
	}

	response.Success(w, http.StatusOK, "Payment recorded successfully", referral)
}

func (h *ReferralHandler) DeleteReferral(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid referral ID")
		return
	}

	if err := h.referralUsecase.Delete(r.Context(), staffID, id); err != nil {
		writeUsecaseError(w, err, "Failed to delete referral")
		return
	}

	response.Success(w, http.StatusOK, "Referral deleted successfully", nil)
}

// ListUnscheduled renders the waiting list
// @Summary List unscheduled referrals
// @Tags Referrals
// @Security BearerAuth
// @Produce json
// @Param month query int false "Registration month"
// @Param year query int false "Registration year"
// @Success 200 {object} response.Response
// @Router /referrals/unscheduled [get]
func (h *ReferralHandler) ListUnscheduled(w http.ResponseWriter, r *http.Request) {
	filter, errs := parseUnscheduledFilter(r.URL.Query())
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	list := h.referralUsecase.ListUnscheduled(r.Context(), filter)
	response.SuccessWithMeta(w, http.StatusOK, "Unscheduled referrals retrieved successfully", list.Referrals, listMeta(len(list.Referrals), list.Stale))
}

// ListScheduled renders the scheduled list
// @Summary List scheduled referrals
// @Tags Referrals
// @Security BearerAuth
// @Produce json
// @Param month query int false "Registration month"
// @Param year query int false "Registration year"
// @Param search query string false "Patient name or code"
// @Param dentist_id query int false "Dentist"
// @Param payment query string false "unpaid, paidOnTheSpot or paid"
// @Success 200 {object} response.Response
// @Router /referrals/scheduled [get]
func (h *ReferralHandler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	filter, errs := parseScheduledFilter(r.URL.Query())
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	list := h.referralUsecase.ListScheduled(r.Context(), filter)
	response.SuccessWithMeta(w, http.StatusOK, "Scheduled referrals retrieved successfully", list.Referrals, listMeta(len(list.Referrals), list.Stale))
}

func (h *ReferralHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments := h.referralUsecase.ListPayments(r.Context())
	response.SuccessWithMeta(w, http.StatusOK, "Payments retrieved successfully", payments, listMeta(len(payments.Unpaid)+len(payments.Paid), payments.Stale))
}

func (h *ReferralHandler) ListDentists(w http.ResponseWriter, r *http.Request) {
	list := h.referralUsecase.ListDentists(r.Context())
	response.SuccessWithMeta(w, http.StatusOK, "Dentists retrieved successfully", list.Dentists, listMeta(len(list.Dentists), list.Stale))
}

// Sync reloads the snapshot from the store on demand
// @Summary Reload data
// @Tags Referrals
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /sync [post]
func (h *ReferralHandler) Sync(w http.ResponseWriter, r *http.Request) {
	snap, err := h.referralUsecase.Refresh(r.Context())
	if err != nil {
		writeUsecaseError(w, err, "Failed to reload data")
		return
	}

	response.Success(w, http.StatusOK, "Data reloaded successfully", dto.SyncResponse{
		Dentists:  len(snap.Dentists),
		Staff:     len(snap.Staff),
		Referrals: len(snap.Referrals),
		LoadedAt:  snap.LoadedAt,
	})
}
