package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order types
const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
)

// Order statuses. SERVED and CANCELLED are terminal.
const (
	OrderStatusPending       = "PENDING"
	OrderStatusInPreparation = "IN_PREPARATION"
	OrderStatusReady         = "READY"
	OrderStatusServed        = "SERVED"
	OrderStatusCancelled     = "CANCELLED"
)

type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderNumber    string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_number"`
	TableID        *uint           `gorm:"index" json:"table_id,omitempty"`
	Table          *Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	OrderType      string          `gorm:"type:varchar(20);not null" json:"order_type"`
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CustomerName   string          `gorm:"type:varchar(100)" json:"customer_name,omitempty"`
	CustomerPhone  string          `gorm:"type:varchar(30)" json:"customer_phone,omitempty"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	ServiceCharge  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"service_charge"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"final_amount"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	KOTPrinted     bool            `gorm:"not null;default:false" json:"kot_printed"`
	KOTPrintedAt   *time.Time      `json:"kot_printed_at,omitempty"`
	OrderItems     []OrderItem     `gorm:"foreignKey:OrderID" json:"order_items"`
	CreatedBy      uint            `gorm:"index" json:"created_by"`
	Creator        *User           `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

// IsTerminal reports whether no further status transitions are allowed.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusServed || o.Status == OrderStatusCancelled
}

// IsEditable reports whether item mutations are still allowed.
func (o *Order) IsEditable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusInPreparation
}
