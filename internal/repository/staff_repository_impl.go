package repository

import (
	"errors"

	"dental-referral-tracker/internal/domain/entity"
	domainRepo "dental-referral-tracker/internal/domain/repository"

	"gorm.io/gorm"
)

type staffRepository struct{}

func NewStaffRepository() domainRepo.StaffRepository {
	return &staffRepository{}
}

func (r *staffRepository) Create(db *gorm.DB, staff *entity.StaffMember) error {
	return db.Create(staff).Error
}

func (r *staffRepository) FindByUsername(db *gorm.DB, username string) (*entity.StaffMember, error) {
	var staff entity.StaffMember
	err := db.Where("username = ?", username).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) FindAll(db *gorm.DB) ([]entity.StaffMember, error) {
	var staff []entity.StaffMember
	err := db.Order("name ASC").Find(&staff).Error
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *staffRepository) Delete(db *gorm.DB, id int64) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.StaffMember{})
	return result.RowsAffected, result.Error
}
