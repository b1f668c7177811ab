package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffMember is a cashier account. The register unlocks with a short PIN,
// stored as an argon2id hash.
type StaffMember struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Code        string     `gorm:"column:code;not null;uniqueIndex"`
	PinHash     string     `gorm:"column:pin_hash;not null"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *StaffMember) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
