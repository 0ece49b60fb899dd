package entity

import (
	"strings"
	"time"
)

// StaffRole gates visibility of the management area
type StaffRole string

const (
	StaffRoleStaff   StaffRole = "staff"
	StaffRoleManager StaffRole = "manager"
)

// ParseStaffRole normalizes stored role labels. Legacy rows use "gestor" for managers.
func ParseStaffRole(raw string) StaffRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "manager", "gestor", "gerente":
		return StaffRoleManager
	default:
		return StaffRoleStaff
	}
}

// StaffMember represents an operator of the system
type StaffMember struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Username       string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	CredentialHash string    `gorm:"column:credential_hash;type:text;not null" json:"-"`
	Role           StaffRole `gorm:"type:varchar(20);not null;default:'staff'" json:"role"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (StaffMember) TableName() string {
	return "staff_members"
}

// IsManager checks if the staff member can access administrative views
func (s *StaffMember) IsManager() bool {
	return s.Role == StaffRoleManager
}
