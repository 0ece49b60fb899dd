package usecase

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// them through errors.Is, except the authentication errors below.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrStore      = errors.New("store unavailable")
	ErrSync       = errors.New("refresh did not complete")
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// ValidationError reports bad or missing input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var (
	ErrPaymentMonthRequired = &ValidationError{Field: "payment_month", Reason: "payment month is required"}
	ErrPaymentMonthInvalid  = &ValidationError{Field: "payment_month", Reason: "payment month must use YYYY-MM"}
	ErrReferralNotScheduled = &ValidationError{Field: "status", Reason: "referral must be scheduled before payment"}
	ErrReferralAlreadyPaid  = &ValidationError{Field: "paid", Reason: "referral is already paid"}
	ErrImmediatePayment     = &ValidationError{Field: "paid_immediately", Reason: "immediate payment requires a scheduled referral"}
	ErrDentistReferenced    = &ValidationError{Field: "dentist_id", Reason: "dentist is referenced by existing referrals"}
	ErrDuplicateUsername    = &ValidationError{Field: "username", Reason: "username already exists"}
	ErrEmptyUpdate          = &ValidationError{Field: "body", Reason: "no fields to update"}
)

// NotFoundError reports an operation target absent from the snapshot or store
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StoreError wraps a Data Store Gateway failure. It is never retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// SyncError reports a refresh that failed; the previous snapshot is retained.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("refresh: %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func (e *SyncError) Is(target error) bool {
	return target == ErrSync
}
