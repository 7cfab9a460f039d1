package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order item statuses mirror the order statuses at line-item level.
const (
	ItemStatusPending       = "PENDING"
	ItemStatusInPreparation = "IN_PREPARATION"
	ItemStatusReady         = "READY"
	ItemStatusServed        = "SERVED"
	ItemStatusCancelled     = "CANCELLED"
)

type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	// Order is omitted from JSON to avoid recursive nesting
	Order      *Order       `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID uint         `gorm:"not null" json:"menu_item_id"`
	MenuItem   *MenuItem    `gorm:"foreignKey:MenuItemID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item,omitempty"`
	VariantID  *uint        `json:"variant_id,omitempty"`
	Variant    *MenuVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	Quantity   int          `gorm:"not null" json:"quantity"`
	// UnitPrice is the catalog price snapshotted when the line was added,
	// never re-read from MenuItem afterwards.
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Notes      string          `gorm:"type:text" json:"notes,omitempty"`
	Status     string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}
