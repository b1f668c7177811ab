package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShopProfile is the settings singleton: one row per deployment, created with
// defaults on first boot.
type ShopProfile struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Address       string    `gorm:"column:address;not null;default:''"`
	TaxID         string    `gorm:"column:tax_id;not null;default:''"`
	VATRegistered bool      `gorm:"column:vat_registered;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *ShopProfile) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
