package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog listing sold at the register. Price is
// tax-inclusive; the VAT share is back-calculated at reporting time.
type Product struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU               string          `gorm:"column:sku;not null;uniqueIndex"`
	Name              string          `gorm:"column:name;not null"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Cost              decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null"`
	Stock             int             `gorm:"column:stock;not null;default:0"`
	LowStockThreshold *int            `gorm:"column:low_stock_threshold"`
	CategoryID        *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Emoji             *string         `gorm:"column:emoji"`
	ImagePath         *string         `gorm:"column:image_path"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not. Keeps sqlite and
// postgres deployments on the same DDL.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
