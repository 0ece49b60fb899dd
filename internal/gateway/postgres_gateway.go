package gateway

import (
	"context"
	"errors"
	"strings"

	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PostgresGateway is the relational Data Store Gateway backed by gorm repositories
type PostgresGateway struct {
	db           *gorm.DB
	log          *logrus.Logger
	dentistRepo  repository.DentistRepository
	staffRepo    repository.StaffRepository
	referralRepo repository.ReferralRepository
}

var _ repository.Gateway = (*PostgresGateway)(nil)

func NewPostgresGateway(
	db *gorm.DB,
	log *logrus.Logger,
	dentistRepo repository.DentistRepository,
	staffRepo repository.StaffRepository,
	referralRepo repository.ReferralRepository,
) *PostgresGateway {
	return &PostgresGateway{
		db:           db,
		log:          log,
		dentistRepo:  dentistRepo,
		staffRepo:    staffRepo,
		referralRepo: referralRepo,
	}
}

func (g *PostgresGateway) ListDentists(ctx context.Context) ([]entity.Dentist, error) {
	return g.dentistRepo.FindAll(g.db.WithContext(ctx))
}

func (g *PostgresGateway) ListStaff(ctx context.Context) ([]entity.StaffMember, error) {
	staff, err := g.staffRepo.FindAll(g.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	for i := range staff {
		staff[i].Role = entity.ParseStaffRole(string(staff[i].Role))
	}
	return staff, nil
}

func (g *PostgresGateway) ListReferrals(ctx context.Context) ([]entity.Referral, error) {
	referrals, err := g.referralRepo.FindAll(g.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	for i := range referrals {
		referrals[i].Status = entity.ParseReferralStatus(string(referrals[i].Status))
	}
	return referrals, nil
}

func (g *PostgresGateway) CreateReferral(ctx context.Context, referral entity.Referral) (*entity.Referral, error) {
	referral.ID = 0
	if err := g.referralRepo.Create(g.db.WithContext(ctx), &referral); err != nil {
		return nil, err
	}
	return &referral, nil
}

func (g *PostgresGateway) UpdateReferral(ctx context.Context, id int64, patch entity.ReferralPatch) (*entity.Referral, error) {
	db := g.db.WithContext(ctx)
	affected, err := g.referralRepo.UpdateFields(db, id, patch)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, repository.ErrRecordNotFound
	}

	referral, err := g.referralRepo.FindByID(db, id)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, repository.ErrRecordNotFound
	}
	return referral, nil
}

func (g *PostgresGateway) DeleteReferral(ctx context.Context, id int64) error {
	affected, err := g.referralRepo.Delete(g.db.WithContext(ctx), id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrRecordNotFound
	}
	return nil
}

func (g *PostgresGateway) CreateDentist(ctx context.Context, dentist entity.Dentist) (*entity.Dentist, error) {
	dentist.ID = 0
	if dentist.Type == "" {
		dentist.Type = entity.DefaultDentistType
	}
	if err := g.dentistRepo.Create(g.db.WithContext(ctx), &dentist); err != nil {
		return nil, err
	}
	return &dentist, nil
}

func (g *PostgresGateway) UpdateDentist(ctx context.Context, dentist entity.Dentist) (*entity.Dentist, error) {
	db := g.db.WithContext(ctx)
	if err := g.dentistRepo.Update(db, &dentist); err != nil {
		return nil, err
	}
	updated, err := g.dentistRepo.FindByID(db, dentist.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, repository.ErrRecordNotFound
	}
	return updated, nil
}

// DeleteDentist refuses to remove a dentist still referenced by a referral.
// The check and the delete share one transaction.
func (g *PostgresGateway) DeleteDentist(ctx context.Context, id int64) error {
	tx := g.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	count, err := g.referralRepo.CountByDentist(tx, id)
	if err != nil {
		g.log.Warnf("Failed to count referrals of dentist %d: %+v", id, err)
		return err
	}
	if count > 0 {
		return repository.ErrDentistInUse
	}

	affected, err := g.dentistRepo.Delete(tx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrRecordNotFound
	}

	return tx.Commit().Error
}

func (g *PostgresGateway) CreateStaff(ctx context.Context, staff entity.StaffMember) (*entity.StaffMember, error) {
	staff.ID = 0
	if err := g.staffRepo.Create(g.db.WithContext(ctx), &staff); err != nil {
		if isDuplicateKeyError(err, "username") {
			return nil, repository.ErrDuplicateUsername
		}
		return nil, err
	}
	return &staff, nil
}

func (g *PostgresGateway) DeleteStaff(ctx context.Context, id int64) error {
	affected, err := g.staffRepo.Delete(g.db.WithContext(ctx), id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrRecordNotFound
	}
	return nil
}

func (g *PostgresGateway) Authenticate(ctx context.Context, username, secret string) (*entity.StaffMember, error) {
	staff, err := g.staffRepo.FindByUsername(g.db.WithContext(ctx), username)
	if err != nil {
		g.log.Warnf("Failed to find staff by username: %+v", err)
		return nil, err
	}
	if staff == nil {
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.CredentialHash), []byte(secret)); err != nil {
		return nil, nil
	}
	staff.Role = entity.ParseStaffRole(string(staff.Role))
	return staff, nil
}

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
