package converter

import (
	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/metrics"
)

// ReferralToResponse converts a Referral entity to ReferralResponse DTO,
// resolving the dentist name from names.
func ReferralToResponse(referral *entity.Referral, names map[int64]string) *dto.ReferralResponse {
	if referral == nil {
		return nil
	}

	dentistName, ok := names[referral.DentistID]
	if !ok || dentistName == "" {
		dentistName = metrics.UnknownDentistName
	}

	return &dto.ReferralResponse{
		ID:              referral.ID,
		PatientCode:     referral.PatientCode,
		PatientName:     referral.PatientName,
		DentistID:       referral.DentistID,
		DentistName:     dentistName,
		RegisteredByID:  referral.RegisteredByID,
		Status:          string(referral.Status),
		Paid:            referral.Paid,
		PaidImmediately: referral.PaidImmediately,
		PaymentLabel:    referral.PaymentLabel(),
		Notes:           referral.Notes,
		RegisteredAt:    referral.RegisteredAt,
		PaidAt:          referral.PaidAt,
		PaymentMonth:    referral.PaymentMonth,
	}
}

func ReferralsToResponses(referrals []entity.Referral, names map[int64]string) []dto.ReferralResponse {
	responses := make([]dto.ReferralResponse, len(referrals))
	for i := range referrals {
		responses[i] = *ReferralToResponse(&referrals[i], names)
	}
	return responses
}
