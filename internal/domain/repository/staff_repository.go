package repository

import (
	"dental-referral-tracker/internal/domain/entity"

	"gorm.io/gorm"
)

type StaffRepository interface {
	Create(db *gorm.DB, staff *entity.StaffMember) error
	FindByUsername(db *gorm.DB, username string) (*entity.StaffMember, error)
	FindAll(db *gorm.DB) ([]entity.StaffMember, error)
	Delete(db *gorm.DB, id int64) (int64, error)
}
