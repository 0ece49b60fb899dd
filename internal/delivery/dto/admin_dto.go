package dto

import "time"

// Request DTOs

type CreateDentistRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
	Type string `json:"type" validate:"omitempty,max=100"`
}

type UpdateDentistRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
	Type string `json:"type" validate:"omitempty,max=100"`
}

type CreateStaffRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Username string `json:"username" validate:"required,notblank,min=3,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=staff manager"`
}

// Response DTOs

type DentistResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type DentistListResponse struct {
	Dentists []DentistResponse `json:"dentists"`
	Stale    bool              `json:"-"`
}

type StaffListResponse struct {
	Staff []StaffResponse `json:"staff"`
	Stale bool            `json:"-"`
}
