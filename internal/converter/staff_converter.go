package converter

import (
	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/entity"
)

// StaffToResponse converts a StaffMember entity to StaffResponse DTO.
// The credential hash is never exposed.
func StaffToResponse(staff *entity.StaffMember) *dto.StaffResponse {
	if staff == nil {
		return nil
	}

	return &dto.StaffResponse{
		ID:        staff.ID,
		Name:      staff.Name,
		Username:  staff.Username,
		Role:      string(staff.Role),
		CreatedAt: staff.CreatedAt,
	}
}

func StaffToResponses(staff []entity.StaffMember) []dto.StaffResponse {
	responses := make([]dto.StaffResponse, len(staff))
	for i := range staff {
		responses[i] = *StaffToResponse(&staff[i])
	}
	return responses
}
