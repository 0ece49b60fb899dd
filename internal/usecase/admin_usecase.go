package usecase

import (
	"context"
	"errors"
	"strings"

	"dental-referral-tracker/internal/converter"
	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/domain/repository"
	"dental-referral-tracker/internal/service"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrStaffReferenced = &ValidationError{Field: "staff_id", Reason: "staff member registered existing referrals"}
	ErrDeleteSelf      = &ValidationError{Field: "staff_id", Reason: "cannot delete the signed-in staff member"}
)

// AdminUsecase manages the dentist and staff registries. Every operation
// is restricted to managers by the delivery layer.
type AdminUsecase interface {
	ListDentists(ctx context.Context) *dto.DentistListResponse
	CreateDentist(ctx context.Context, actorID int64, req *dto.CreateDentistRequest) (*dto.DentistResponse, error)
	UpdateDentist(ctx context.Context, actorID, id int64, req *dto.UpdateDentistRequest) (*dto.DentistResponse, error)
	DeleteDentist(ctx context.Context, actorID, id int64) error
	ListStaff(ctx context.Context) *dto.StaffListResponse
	CreateStaff(ctx context.Context, actorID int64, req *dto.CreateStaffRequest) (*dto.StaffResponse, error)
	DeleteStaff(ctx context.Context, actorID, id int64) error
}

type adminUsecase struct {
	log       *logrus.Logger
	gateway   repository.Gateway
	referrals ReferralUsecase
	audit     service.AuditService
}

func NewAdminUsecase(
	log *logrus.Logger,
	gateway repository.Gateway,
	referrals ReferralUsecase,
	audit service.AuditService,
) AdminUsecase {
	return &adminUsecase{
		log:       log,
		gateway:   gateway,
		referrals: referrals,
		audit:     audit,
	}
}

func (u *adminUsecase) ListDentists(ctx context.Context) *dto.DentistListResponse {
	return u.referrals.ListDentists(ctx)
}

func (u *adminUsecase) CreateDentist(ctx context.Context, actorID int64, req *dto.CreateDentistRequest) (*dto.DentistResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "name is required"}
	}
	dentistType := strings.TrimSpace(req.Type)
	if dentistType == "" {
		dentistType = entity.DefaultDentistType
	}

	created, err := u.gateway.CreateDentist(ctx, entity.Dentist{Name: name, Type: dentistType})
	if err != nil {
		u.log.Warnf("Failed to create dentist: %+v", err)
		return nil, &StoreError{Op: "create dentist", Err: err}
	}

	u.audit.LogCreate(ctx, &actorID, entity.AuditActionDentistCreate, "dentist", created.ID, created)
	u.log.Infof("Dentist %d created by staff %d", created.ID, actorID)
	u.resync(ctx)

	return converter.DentistToResponse(created), nil
}

func (u *adminUsecase) UpdateDentist(ctx context.Context, actorID, id int64, req *dto.UpdateDentistRequest) (*dto.DentistResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "name is required"}
	}

	snap := u.referrals.Snapshot()
	old, known := snap.DentistByID(id)
	dentistType := strings.TrimSpace(req.Type)
	if dentistType == "" {
		dentistType = old.Type
	}
	if dentistType == "" {
		dentistType = entity.DefaultDentistType
	}

	updated, err := u.gateway.UpdateDentist(ctx, entity.Dentist{ID: id, Name: name, Type: dentistType})
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "dentist", ID: id}
		}
		u.log.Warnf("Failed to update dentist %d: %+v", id, err)
		return nil, &StoreError{Op: "update dentist", Err: err}
	}

	var oldValue interface{}
	if known {
		oldValue = old
	}
	u.audit.LogUpdate(ctx, &actorID, entity.AuditActionDentistUpdate, "dentist", id, oldValue, updated)
	u.log.Infof("Dentist %d renamed by staff %d", id, actorID)
	u.resync(ctx)

	return converter.DentistToResponse(updated), nil
}

// DeleteDentist removes a dentist no referral points at. The snapshot is
// reloaded first so the reference check sees the store's current state.
func (u *adminUsecase) DeleteDentist(ctx context.Context, actorID, id int64) error {
	snap, err := u.referrals.Refresh(ctx)
	if err != nil {
		return err
	}

	dentist, ok := snap.DentistByID(id)
	if !ok {
		return &NotFoundError{Entity: "dentist", ID: id}
	}
	for i := range snap.Referrals {
		if snap.Referrals[i].DentistID == id {
			return ErrDentistReferenced
		}
	}

	if err := u.gateway.DeleteDentist(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return &NotFoundError{Entity: "dentist", ID: id}
		}
		if errors.Is(err, repository.ErrDentistInUse) {
			return ErrDentistReferenced
		}
		u.log.Warnf("Failed to delete dentist %d: %+v", id, err)
		return &StoreError{Op: "delete dentist", Err: err}
	}

	u.audit.LogDelete(ctx, &actorID, entity.AuditActionDentistDelete, "dentist", id, dentist)
	u.log.Infof("Dentist %d deleted by staff %d", id, actorID)
	u.resync(ctx)

	return nil
}

func (u *adminUsecase) ListStaff(ctx context.Context) *dto.StaffListResponse {
	snap, err := u.referrals.Refresh(ctx)
	return &dto.StaffListResponse{
		Staff: converter.StaffToResponses(snap.Staff),
		Stale: err != nil,
	}
}

func (u *adminUsecase) CreateStaff(ctx context.Context, actorID int64, req *dto.CreateStaffRequest) (*dto.StaffResponse, error) {
	name := strings.TrimSpace(req.Name)
	username := strings.TrimSpace(req.Username)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "name is required"}
	}
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "username is required"}
	}
	if req.Password == "" {
		return nil, &ValidationError{Field: "password", Reason: "password is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, &ValidationError{Field: "password", Reason: "password cannot be hashed"}
	}

	staff := entity.StaffMember{
		Name:           name,
		Username:       username,
		CredentialHash: string(hash),
		Role:           entity.ParseStaffRole(req.Role),
	}

	created, err := u.gateway.CreateStaff(ctx, staff)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		u.log.Warnf("Failed to create staff member: %+v", err)
		return nil, &StoreError{Op: "create staff", Err: err}
	}

	u.audit.LogCreate(ctx, &actorID, entity.AuditActionStaffCreate, "staff", created.ID, converter.StaffToResponse(created))
	u.log.Infof("Staff member %d (%s) created by staff %d", created.ID, created.Username, actorID)
	u.resync(ctx)

	return converter.StaffToResponse(created), nil
}

func (u *adminUsecase) DeleteStaff(ctx context.Context, actorID, id int64) error {
	if id == actorID {
		return ErrDeleteSelf
	}

	snap, err := u.referrals.Refresh(ctx)
	if err != nil {
		return err
	}

	var target *entity.StaffMember
	for i := range snap.Staff {
		if snap.Staff[i].ID == id {
			target = &snap.Staff[i]
			break
		}
	}
	if target == nil {
		return &NotFoundError{Entity: "staff", ID: id}
	}
	for i := range snap.Referrals {
		if snap.Referrals[i].RegisteredByID == id {
			return ErrStaffReferenced
		}
	}

	if err := u.gateway.DeleteStaff(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return &NotFoundError{Entity: "staff", ID: id}
		}
		u.log.Warnf("Failed to delete staff member %d: %+v", id, err)
		return &StoreError{Op: "delete staff", Err: err}
	}

	u.audit.LogDelete(ctx, &actorID, entity.AuditActionStaffDelete, "staff", id, converter.StaffToResponse(target))
	u.log.Infof("Staff member %d deleted by staff %d", id, actorID)
	u.resync(ctx)

	return nil
}

// resync reloads the snapshot after a registry change. The change itself
// already succeeded, so a failed reload is only logged.
func (u *adminUsecase) resync(ctx context.Context) {
	if _, err := u.referrals.Refresh(ctx); err != nil {
		u.log.Warnf("Failed to reload snapshot after registry change: %+v", err)
	}
}
