package entity

import "time"

// DefaultDentistType is used when a dentist is registered without a category.
const DefaultDentistType = "orthodontist"

// Dentist represents a practitioner a referral is routed to
type Dentist struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Type      string    `gorm:"type:varchar(100);not null;default:'orthodontist'" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Dentist) TableName() string {
	return "dentists"
}
