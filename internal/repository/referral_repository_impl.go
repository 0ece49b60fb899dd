package repository

import (
	"errors"

	"dental-referral-tracker/internal/domain/entity"
	domainRepo "dental-referral-tracker/internal/domain/repository"

	"gorm.io/gorm"
)

type referralRepository struct{}

func NewReferralRepository() domainRepo.ReferralRepository {
	return &referralRepository{}
}

func (r *referralRepository) Create(db *gorm.DB, referral *entity.Referral) error {
	return db.Omit("Dentist", "RegisteredBy").Create(referral).Error
}

func (r *referralRepository) FindByID(db *gorm.DB, id int64) (*entity.Referral, error) {
	var referral entity.Referral
	err := db.Where("id = ?", id).First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

func (r *referralRepository) FindAll(db *gorm.DB) ([]entity.Referral, error) {
	var referrals []entity.Referral
	err := db.Order("registered_at DESC").Order("id DESC").Find(&referrals).Error
	if err != nil {
		return nil, err
	}
	return referrals, nil
}

// UpdateFields writes only the columns set in the patch.
// Returns affected rows: 0 means the referral does not exist.
func (r *referralRepository) UpdateFields(db *gorm.DB, id int64, patch entity.ReferralPatch) (int64, error) {
	result := db.Model(&entity.Referral{}).
		Where("id = ?", id).
		Updates(patch.Columns())
	return result.RowsAffected, result.Error
}

func (r *referralRepository) Delete(db *gorm.DB, id int64) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.Referral{})
	return result.RowsAffected, result.Error
}

func (r *referralRepository) CountByDentist(db *gorm.DB, dentistID int64) (int64, error) {
	var count int64
	err := db.Model(&entity.Referral{}).Where("dentist_id = ?", dentistID).Count(&count).Error
	return count, err
}
