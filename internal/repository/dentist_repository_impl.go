package repository

import (
	"errors"

	"dental-referral-tracker/internal/domain/entity"
	domainRepo "dental-referral-tracker/internal/domain/repository"

	"gorm.io/gorm"
)

type dentistRepository struct{}

func NewDentistRepository() domainRepo.DentistRepository {
	return &dentistRepository{}
}

func (r *dentistRepository) Create(db *gorm.DB, dentist *entity.Dentist) error {
	return db.Create(dentist).Error
}

func (r *dentistRepository) FindByID(db *gorm.DB, id int64) (*entity.Dentist, error) {
	var dentist entity.Dentist
	err := db.Where("id = ?", id).First(&dentist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dentist, nil
}

func (r *dentistRepository) FindAll(db *gorm.DB) ([]entity.Dentist, error) {
	var dentists []entity.Dentist
	err := db.Order("name ASC").Find(&dentists).Error
	if err != nil {
		return nil, err
	}
	return dentists, nil
}

func (r *dentistRepository) Update(db *gorm.DB, dentist *entity.Dentist) error {
	return db.Model(&entity.Dentist{}).
		Where("id = ?", dentist.ID).
		Updates(map[string]interface{}{"name": dentist.Name, "type": dentist.Type}).Error
}

func (r *dentistRepository) Delete(db *gorm.DB, id int64) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.Dentist{})
	return result.RowsAffected, result.Error
}
