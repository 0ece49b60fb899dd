package repository

import (
	"dental-referral-tracker/internal/domain/entity"

	"gorm.io/gorm"
)

type DentistRepository interface {
	Create(db *gorm.DB, dentist *entity.Dentist) error
	FindByID(db *gorm.DB, id int64) (*entity.Dentist, error)
	FindAll(db *gorm.DB) ([]entity.Dentist, error)
	Update(db *gorm.DB, dentist *entity.Dentist) error
	Delete(db *gorm.DB, id int64) (int64, error)
}
