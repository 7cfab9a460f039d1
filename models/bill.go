package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is a frozen computation derived from an order at settlement
// time. Later order mutations never touch it; only ApplyDiscount
// re-derives its totals from the BillItems snapshot.
type Bill struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	BillNumber     string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"bill_number"`
	OrderID        uint            `gorm:"uniqueIndex;not null" json:"order_id"`
	Order          *Order          `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	ServiceCharge  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"service_charge"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"final_amount"`
	IsPaid         bool            `gorm:"not null;default:false" json:"is_paid"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	BillItems      []BillItem      `gorm:"foreignKey:BillID" json:"bill_items"`
	Payments       []Payment       `gorm:"foreignKey:BillID" json:"payments,omitempty"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

// BillItem is the line-item snapshot the bill's totals are derived
// from. Menu name and price are copied, not referenced.
type BillItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	BillID     uint            `gorm:"not null;index" json:"bill_id"`
	MenuItemID uint            `gorm:"not null" json:"menu_item_id"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Notes      string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}
