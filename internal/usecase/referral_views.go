package usecase

import (
	"math"
	"strings"
	"time"

	"dental-referral-tracker/internal/converter"
	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/entity"
)

// PendingDays is the number of whole days elapsed since registeredAt.
// Future registrations yield negative values.
func PendingDays(registeredAt, now time.Time) int {
	return int(math.Floor(now.Sub(registeredAt).Hours() / 24))
}

func inMonth(t time.Time, month, year int, loc *time.Location) bool {
	local := t.In(loc)
	if month > 0 && int(local.Month()) != month {
		return false
	}
	if year > 0 && local.Year() != year {
		return false
	}
	return true
}

// UnscheduledView lists referrals waiting to be scheduled, most recent first.
func UnscheduledView(snap *entity.Snapshot, filter dto.UnscheduledFilter, now time.Time, loc *time.Location) []dto.ReferralResponse {
	names := snap.DentistNames()
	rows := make([]dto.ReferralResponse, 0)
	for i := range snap.Referrals {
		r := &snap.Referrals[i]
		if !r.IsUnscheduled() {
			continue
		}
		registered := r.RegistrationTime(now)
		if !inMonth(registered, filter.Month, filter.Year, loc) {
			continue
		}
		row := converter.ReferralToResponse(r, names)
		days := PendingDays(registered, now)
		row.PendingDays = &days
		rows = append(rows, *row)
	}
	return rows
}

// ScheduledView lists scheduled referrals narrowed by month, free text,
// dentist and payment state.
func ScheduledView(snap *entity.Snapshot, filter dto.ScheduledFilter, now time.Time, loc *time.Location) []dto.ReferralResponse {
	names := snap.DentistNames()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	rows := make([]dto.ReferralResponse, 0)
	for i := range snap.Referrals {
		r := &snap.Referrals[i]
		if !r.IsScheduled() {
			continue
		}
		if !inMonth(r.RegistrationTime(now), filter.Month, filter.Year, loc) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.PatientName), search) &&
			!strings.Contains(strings.ToLower(r.PatientCode), search) {
			continue
		}
		if filter.DentistID != 0 && r.DentistID != filter.DentistID {
			continue
		}
		if !filter.Payment.Matches(r) {
			continue
		}
		rows = append(rows, *converter.ReferralToResponse(r, names))
	}
	return rows
}

// PaymentsView splits scheduled referrals into unpaid and paid.
func PaymentsView(snap *entity.Snapshot) *dto.PaymentsResponse {
	names := snap.DentistNames()
	resp := &dto.PaymentsResponse{
		Unpaid: make([]dto.ReferralResponse, 0),
		Paid:   make([]dto.ReferralResponse, 0),
	}
	for i := range snap.Referrals {
		r := &snap.Referrals[i]
		if !r.IsScheduled() {
			continue
		}
		row := converter.ReferralToResponse(r, names)
		if r.Paid {
			resp.Paid = append(resp.Paid, *row)
		} else {
			resp.Unpaid = append(resp.Unpaid, *row)
		}
	}
	return resp
}
