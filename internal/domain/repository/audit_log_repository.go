package repository

import (
	"dental-referral-tracker/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error)
	FindRecent(db *gorm.DB, limit int) ([]entity.AuditLog, error)
}
