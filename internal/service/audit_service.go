package service

import (
	"context"
	"strconv"

	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService records a trail entry for each successful mutation.
// Failures are logged and never propagate to the mutation.
type AuditService interface {
	LogCreate(ctx context.Context, actorID *int64, action string, entityName string, entityID int64, newValue interface{})
	LogUpdate(ctx context.Context, actorID *int64, action string, entityName string, entityID int64, oldValue, newValue interface{})
	LogDelete(ctx context.Context, actorID *int64, action string, entityName string, entityID int64, oldValue interface{})
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

// NewAuditService persists entries to audit_logs. With a nil db the
// entries are written to the log stream instead.
func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) LogCreate(ctx context.Context, actorID *int64, action string, entityName string, entityID int64, newValue interface{}) {
	s.record(ctx, actorID, action, entityName, entityID, nil, newValue)
}

func (s *auditService) LogUpdate(ctx context.Context, actorID *int64, action string, entityName string, entityID int64, oldValue, newValue interface{}) {
	s.record(ctx, actorID, action, entityName, entityID, oldValue, newValue)
}

func (s *auditService) LogDelete(ctx context.Context, actorID *int64, action string, entityName string, entityID int64, oldValue interface{}) {
	s.record(ctx, actorID, action, entityName, entityID, oldValue, nil)
}

func (s *auditService) record(ctx context.Context, actorID *int64, action, entityName string, entityID int64, oldValue, newValue interface{}) {
	metadata := entity.JSON{
		"entity":    entityName,
		"entity_id": strconv.FormatInt(entityID, 10),
		"old_value": oldValue,
		"new_value": newValue,
	}

	if s.db == nil || s.auditRepo == nil {
		fields := logrus.Fields{"action": action, "entity": entityName, "entity_id": entityID}
		if actorID != nil {
			fields["actor_id"] = *actorID
		}
		s.log.WithFields(fields).Info("audit")
		return
	}

	auditLog := &entity.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(s.db.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
	}
}
