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

// AdminHandler serves the management area. Routes are mounted behind
// middleware.RequireManager.
type AdminHandler struct {
	adminUsecase usecase.AdminUsecase
	validator    *validator.CustomValidator
}

func NewAdminHandler(adminUsecase usecase.AdminUsecase, validator *validator.CustomValidator) *AdminHandler {
	return &AdminHandler{
		adminUsecase: adminUsecase,
		validator:    validator,
	}
}

func (h *AdminHandler) GetAllDentists(w http.ResponseWriter, r *http.Request) {
	list := h.adminUsecase.ListDentists(r.Context())
	response.SuccessWithMeta(w, http.StatusOK, "Dentists retrieved successfully", list.Dentists, listMeta(len(list.Dentists), list.Stale))
}

func (h *AdminHandler) CreateDentist(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CreateDentistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	dentist, err := h.adminUsecase.CreateDentist(r.Context(), staffID, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create dentist")
		return
	}

	response.Success(w, http.StatusCreated, "Dentist created successfully", dentist)
}

func (h *AdminHandler) UpdateDentist(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid dentist ID")
		return
	}

	var req dto.UpdateDentistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	dentist, err := h.adminUsecase.UpdateDentist(r.Context(), staffID, id, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to update dentist")
		return
	}

	response.Success(w, http.StatusOK, "Dentist updated successfully", dentist)
}

func (h *AdminHandler) DeleteDentist(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid dentist ID")
		return
	}

	if err := h.adminUsecase.DeleteDentist(r.Context(), staffID, id); err != nil {
		writeUsecaseError(w, err, "Failed to delete dentist")
		return
	}

	response.Success(w, http.StatusOK, "Dentist deleted successfully", nil)
}

func (h *AdminHandler) GetAllStaff(w http.ResponseWriter, r *http.Request) {
	list := h.adminUsecase.ListStaff(r.Context())
	response.SuccessWithMeta(w, http.StatusOK, "Staff retrieved successfully", list.Staff, listMeta(len(list.Staff), list.Stale))
}

func (h *AdminHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	staff, err := h.adminUsecase.CreateStaff(r.Context(), staffID, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create staff member")
		return
	}

	response.Success(w, http.StatusCreated, "Staff member created successfully", staff)
}

func (h *AdminHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid staff ID")
		return
	}

	if err := h.adminUsecase.DeleteStaff(r.Context(), staffID, id); err != nil {
		writeUsecaseError(w, err, "Failed to delete staff member")
		return
	}

	response.Success(w, http.StatusOK, "Staff member deleted successfully", nil)
}
