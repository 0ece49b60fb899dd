package dto

import (
	"time"

	"dental-referral-tracker/internal/domain/entity"
)

// Request DTOs

type CreateReferralRequest struct {
	PatientCode     string `json:"patient_code" validate:"required,notblank,max=100"`
	PatientName     string `json:"patient_name" validate:"required,notblank,max=255"`
	DentistID       int64  `json:"dentist_id" validate:"required,gt=0"`
	Status          string `json:"status" validate:"omitempty,oneof=unscheduled scheduled"`
	PaidImmediately bool   `json:"paid_immediately"`
	Notes           string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateReferralRequest edits referral details. Omitted fields are unchanged.
type UpdateReferralRequest struct {
	PatientCode *string `json:"patient_code" validate:"omitempty,notblank,max=100"`
	PatientName *string `json:"patient_name" validate:"omitempty,notblank,max=255"`
	DentistID   *int64  `json:"dentist_id" validate:"omitempty,gt=0"`
	Notes       *string `json:"notes" validate:"omitempty,max=2000"`
}

type RecordPaymentRequest struct {
	PaymentMonth string `json:"payment_month" validate:"required,yearmonth"`
}

// UnscheduledFilter restricts the unscheduled view by registration month.
// Zero values disable a restriction.
type UnscheduledFilter struct {
	Month int
	Year  int
}

type ScheduledFilter struct {
	Month     int
	Year      int
	Search    string
	DentistID int64
	Payment   entity.PaymentState
}

// Response DTOs

type ReferralResponse struct {
	ID              int64               `json:"id"`
	PatientCode     string              `json:"patient_code"`
	PatientName     string              `json:"patient_name"`
	DentistID       int64               `json:"dentist_id"`
	DentistName     string              `json:"dentist_name"`
	RegisteredByID  int64               `json:"registered_by_id"`
	Status          string              `json:"status"`
	Paid            bool                `json:"paid"`
	PaidImmediately bool                `json:"paid_immediately"`
	PaymentLabel    entity.PaymentState `json:"payment_label"`
	Notes           string              `json:"notes,omitempty"`
	RegisteredAt    time.Time           `json:"registered_at"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	PaymentMonth    *string             `json:"payment_month,omitempty"`
	PendingDays     *int                `json:"pending_days,omitempty"`
}

type ReferralListResponse struct {
	Referrals []ReferralResponse `json:"referrals"`
	Stale     bool               `json:"-"`
}

type PaymentsResponse struct {
	Unpaid []ReferralResponse `json:"unpaid"`
	Paid   []ReferralResponse `json:"paid"`
	Stale  bool               `json:"-"`
}

type SyncResponse struct {
	Dentists  int       `json:"dentists"`
	Staff     int       `json:"staff"`
	Referrals int       `json:"referrals"`
	LoadedAt  time.Time `json:"loaded_at"`
}
