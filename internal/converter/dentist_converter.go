package converter

import (
	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/entity"
)

func DentistToResponse(dentist *entity.Dentist) *dto.DentistResponse {
	if dentist == nil {
		return nil
	}

	return &dto.DentistResponse{
		ID:        dentist.ID,
		Name:      dentist.Name,
		Type:      dentist.Type,
		CreatedAt: dentist.CreatedAt,
	}
}

func DentistsToResponses(dentists []entity.Dentist) []dto.DentistResponse {
	responses := make([]dto.DentistResponse, len(dentists))
	for i := range dentists {
		responses[i] = *DentistToResponse(&dentists[i])
	}
	return responses
}
