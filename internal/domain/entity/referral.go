package entity

import (
	"strings"
	"time"
)

// ReferralStatus represents the scheduling state of a referral
type ReferralStatus string

const (
	ReferralStatusUnscheduled ReferralStatus = "unscheduled"
	ReferralStatusScheduled   ReferralStatus = "scheduled"
)

// PaymentMonthLayout is the layout of Referral.PaymentMonth
const PaymentMonthLayout = "2006-01"

var scheduledAliases = map[string]struct{}{
	"scheduled":  {},
	"agendada":   {},
	"agendado":   {},
	"marcado":    {},
	"marcada":    {},
	"marked":     {},
	"confirmado": {},
	"confirmada": {},
	"confirmed":  {},
}

// IsPaidLabel reports whether a stored status string means "paid".
func IsPaidLabel(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pago", "paga", "paid":
		return true
	}
	return false
}

// ParseReferralStatus maps historical spellings to a ReferralStatus.
// Unknown or empty values are treated as unscheduled.
func ParseReferralStatus(raw string) ReferralStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := scheduledAliases[s]; ok {
		return ReferralStatusScheduled
	}
	// a paid referral has necessarily been scheduled
	if IsPaidLabel(s) {
		return ReferralStatusScheduled
	}
	return ReferralStatusUnscheduled
}

// Referral is a patient record tracked from registration through scheduling and payment
type Referral struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientCode     string         `gorm:"type:varchar(100);not null;index" json:"patient_code"`
	PatientName     string         `gorm:"type:varchar(255);not null" json:"patient_name"`
	DentistID       int64          `gorm:"not null;index" json:"dentist_id"`
	RegisteredByID  int64          `gorm:"column:registered_by_id;not null;index" json:"registered_by_id"`
	Status          ReferralStatus `gorm:"type:varchar(20);not null;default:'unscheduled';index" json:"status"`
	Paid            bool           `gorm:"not null;default:false" json:"paid"`
	PaidImmediately bool           `gorm:"not null;default:false" json:"paid_immediately"`
	Notes           string         `gorm:"type:text" json:"notes,omitempty"`
	RegisteredAt    time.Time      `gorm:"not null;index" json:"registered_at"`
	PaidAt          *time.Time     `json:"paid_at,omitempty"`
	PaymentMonth    *string        `gorm:"type:char(7)" json:"payment_month,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Dentist      *Dentist     `gorm:"foreignKey:DentistID" json:"dentist,omitempty"`
	RegisteredBy *StaffMember `gorm:"foreignKey:RegisteredByID" json:"-"`
}

func (Referral) TableName() string {
	return "referrals"
}

// IsScheduled checks if the referral has been scheduled
func (r *Referral) IsScheduled() bool {
	return r.Status == ReferralStatusScheduled
}

// IsUnscheduled checks if the referral is still waiting to be scheduled
func (r *Referral) IsUnscheduled() bool {
	return r.Status != ReferralStatusScheduled
}

// Schedule moves the referral to scheduled. There is no reverse transition.
func (r *Referral) Schedule() {
	r.Status = ReferralStatusScheduled
}

// MarkPaid records a payment at paidAt attributed to the given accounting month.
func (r *Referral) MarkPaid(paidAt time.Time, paymentMonth string) {
	r.Paid = true
	r.PaidAt = &paidAt
	r.PaymentMonth = &paymentMonth
}

// EventTime is the instant a payment counts at: paidAt, falling back to
// registeredAt, then createdAt, then fallback.
func (r *Referral) EventTime(fallback time.Time) time.Time {
	switch {
	case r.PaidAt != nil && !r.PaidAt.IsZero():
		return *r.PaidAt
	case !r.RegisteredAt.IsZero():
		return r.RegisteredAt
	case !r.CreatedAt.IsZero():
		return r.CreatedAt
	default:
		return fallback
	}
}

// BackfillPayment completes a paid referral that was stored without its
// payment instant or month, using EventTime in loc.
func (r *Referral) BackfillPayment(loc *time.Location, fallback time.Time) {
	if !r.Paid {
		return
	}
	if r.PaidAt == nil || r.PaidAt.IsZero() {
		at := r.EventTime(fallback)
		r.PaidAt = &at
	}
	if r.PaymentMonth == nil || *r.PaymentMonth == "" {
		month := r.PaidAt.In(loc).Format(PaymentMonthLayout)
		r.PaymentMonth = &month
	}
}

// RegistrationTime returns registeredAt, falling back to createdAt then fallback.
func (r *Referral) RegistrationTime(fallback time.Time) time.Time {
	switch {
	case !r.RegisteredAt.IsZero():
		return r.RegisteredAt
	case !r.CreatedAt.IsZero():
		return r.CreatedAt
	default:
		return fallback
	}
}

// PaymentLabel classifies the payment state shown next to a scheduled referral
func (r *Referral) PaymentLabel() PaymentState {
	switch {
	case r.PaidImmediately:
		return PaymentStatePaidOnTheSpot
	case r.Paid:
		return PaymentStatePaid
	default:
		return PaymentStateUnpaid
	}
}

// PaymentState is the payment filter used by the scheduled view
type PaymentState string

const (
	PaymentStateUnpaid        PaymentState = "unpaid"
	PaymentStatePaidOnTheSpot PaymentState = "paidOnTheSpot"
	PaymentStatePaid          PaymentState = "paid"
)

// ParsePaymentState validates a payment filter value. Empty input yields "".
func ParsePaymentState(raw string) (PaymentState, bool) {
	switch PaymentState(strings.TrimSpace(raw)) {
	case "":
		return "", true
	case PaymentStateUnpaid:
		return PaymentStateUnpaid, true
	case PaymentStatePaidOnTheSpot:
		return PaymentStatePaidOnTheSpot, true
	case PaymentStatePaid:
		return PaymentStatePaid, true
	}
	return "", false
}

// Matches reports whether the referral satisfies the payment filter
func (s PaymentState) Matches(r *Referral) bool {
	switch s {
	case PaymentStateUnpaid:
		return !r.Paid
	case PaymentStatePaidOnTheSpot:
		return r.PaidImmediately
	case PaymentStatePaid:
		return r.Paid
	default:
		return true
	}
}

// ReferralPatch carries the fields of a partial referral update.
// Nil fields are left untouched.
type ReferralPatch struct {
	PatientCode  *string
	PatientName  *string
	DentistID    *int64
	Notes        *string
	Status       *ReferralStatus
	Paid         *bool
	PaidAt       *time.Time
	PaymentMonth *string
}

// IsEmpty reports whether the patch changes nothing
func (p ReferralPatch) IsEmpty() bool {
	return p.PatientCode == nil && p.PatientName == nil && p.DentistID == nil &&
		p.Notes == nil && p.Status == nil && p.Paid == nil && p.PaidAt == nil &&
		p.PaymentMonth == nil
}

// ApplyTo copies the set fields onto r in place
func (p ReferralPatch) ApplyTo(r *Referral) {
	if p.PatientCode != nil {
		r.PatientCode = *p.PatientCode
	}
	if p.PatientName != nil {
		r.PatientName = *p.PatientName
	}
	if p.DentistID != nil {
		r.DentistID = *p.DentistID
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Paid != nil {
		r.Paid = *p.Paid
	}
	if p.PaidAt != nil {
		t := *p.PaidAt
		r.PaidAt = &t
	}
	if p.PaymentMonth != nil {
		m := *p.PaymentMonth
		r.PaymentMonth = &m
	}
}

// Columns returns the patch as a column map for the relational store
func (p ReferralPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.PatientCode != nil {
		cols["patient_code"] = *p.PatientCode
	}
	if p.PatientName != nil {
		cols["patient_name"] = *p.PatientName
	}
	if p.DentistID != nil {
		cols["dentist_id"] = *p.DentistID
	}
	if p.Notes != nil {
		cols["notes"] = *p.Notes
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.Paid != nil {
		cols["paid"] = *p.Paid
	}
	if p.PaidAt != nil {
		cols["paid_at"] = *p.PaidAt
	}
	if p.PaymentMonth != nil {
		cols["payment_month"] = *p.PaymentMonth
	}
	return cols
}
