package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/enums"
)

// StockMovement is an audit row for every stock change: sales decrement,
// restocks and manual corrections.
type StockMovement struct {
	ID        uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID                 `gorm:"column:product_id;type:uuid;not null;index"`
	Delta     int                       `gorm:"column:delta;not null"`
	Reason    enums.StockMovementReason `gorm:"column:reason;type:text;not null"`
	SaleID    *uuid.UUID                `gorm:"column:sale_id;type:uuid"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
