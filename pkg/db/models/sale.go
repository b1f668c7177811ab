package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/enums"
)

// Sale is an immutable ledger entry for a completed checkout. Line items are
// price-at-sale snapshots, never references into the live catalog.
type Sale struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber      string              `gorm:"column:order_number;not null;uniqueIndex"`
	Total            decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	VATRate          decimal.Decimal     `gorm:"column:vat_rate;type:numeric(6,4);not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	AmountTendered   decimal.Decimal     `gorm:"column:amount_tendered;type:numeric(12,2);not null"`
	ChangeDue        decimal.Decimal     `gorm:"column:change_due;type:numeric(12,2);not null"`
	GatewayReference *string             `gorm:"column:gateway_reference"`
	CashierID        *uuid.UUID          `gorm:"column:cashier_id;type:uuid"`
	Items            []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SaleItem captures one cart line as sold.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleID    uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	SKU       string          `gorm:"column:sku;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *SaleItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
