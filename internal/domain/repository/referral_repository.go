package repository

import (
	"dental-referral-tracker/internal/domain/entity"

	"gorm.io/gorm"
)

type ReferralRepository interface {
	Create(db *gorm.DB, referral *entity.Referral) error
	FindByID(db *gorm.DB, id int64) (*entity.Referral, error)
	FindAll(db *gorm.DB) ([]entity.Referral, error)
	UpdateFields(db *gorm.DB, id int64, patch entity.ReferralPatch) (int64, error)
	Delete(db *gorm.DB, id int64) (int64, error)
	CountByDentist(db *gorm.DB, dentistID int64) (int64, error)
}
