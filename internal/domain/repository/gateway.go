package repository

import (
	"context"
	"errors"

	"dental-referral-tracker/internal/domain/entity"
)

var (
	// ErrRecordNotFound is returned by a gateway when the target row does not exist
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned when a staff username is already taken
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDentistInUse is returned when deleting a dentist referrals still point at
	ErrDentistInUse = errors.New("dentist is referenced by referrals")
)

// Gateway persists and retrieves dentists, staff members and referrals.
// It owns identity assignment and translates field names to the backing store.
// Every method may fail with a transport or backend error.
type Gateway interface {
	ListDentists(ctx context.Context) ([]entity.Dentist, error)
	ListStaff(ctx context.Context) ([]entity.StaffMember, error)
	// ListReferrals returns referrals ordered by registration time, descending.
	ListReferrals(ctx context.Context) ([]entity.Referral, error)

	CreateReferral(ctx context.Context, referral entity.Referral) (*entity.Referral, error)
	UpdateReferral(ctx context.Context, id int64, patch entity.ReferralPatch) (*entity.Referral, error)
	DeleteReferral(ctx context.Context, id int64) error

	CreateDentist(ctx context.Context, dentist entity.Dentist) (*entity.Dentist, error)
	UpdateDentist(ctx context.Context, dentist entity.Dentist) (*entity.Dentist, error)
	DeleteDentist(ctx context.Context, id int64) error

	CreateStaff(ctx context.Context, staff entity.StaffMember) (*entity.StaffMember, error)
	DeleteStaff(ctx context.Context, id int64) error

	// Authenticate returns the staff member whose username and secret match, or nil.
	Authenticate(ctx context.Context, username, secret string) (*entity.StaffMember, error)
}
