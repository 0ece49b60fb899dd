package usecase

import (
	"context"

	"dental-referral-tracker/internal/converter"
	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultAuditLogLimit = 50
	MaxAuditLogLimit     = 500
)

type AuditLogUsecase interface {
	GetRecentAuditLogs(ctx context.Context, limit int) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

// NewAuditLogUsecase reads the persisted trail. With a nil db (hosted
// backend) the trail only exists in the log stream and lists are empty.
func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

func (u *auditLogUsecase) GetRecentAuditLogs(ctx context.Context, limit int) (*dto.AuditLogListResponse, error) {
	if limit <= 0 {
		limit = DefaultAuditLogLimit
	}
	if limit > MaxAuditLogLimit {
		limit = MaxAuditLogLimit
	}
	if u.db == nil {
		return &dto.AuditLogListResponse{Logs: []dto.AuditLogResponse{}}, nil
	}

	logs, err := u.auditLogRepo.FindRecent(u.db.WithContext(ctx), limit)
	if err != nil {
		u.log.Warnf("Failed to find recent audit logs: %+v", err)
		return nil, &StoreError{Op: "list audit logs", Err: err}
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	if u.db == nil {
		return nil, &NotFoundError{Entity: "audit log", ID: id}
	}

	auditLog, err := u.auditLogRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find audit log: %+v", err)
		return nil, &StoreError{Op: "get audit log", Err: err}
	}
	if auditLog == nil {
		return nil, &NotFoundError{Entity: "audit log", ID: id}
	}

	return converter.AuditLogToResponse(auditLog), nil
}
