package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is the catalog entry an order line references. Order lines
// snapshot its price instead of pointing at it live.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_price"`
	IsAvailable bool            `gorm:"not null;default:true" json:"is_available"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	ImageURL    string          `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	Variants    []MenuVariant   `gorm:"foreignKey:MenuItemID" json:"variants,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// MenuVariant adds a surcharge on top of the item's base price.
type MenuVariant struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	MenuItemID uint            `gorm:"not null;index" json:"menu_item_id"`
	Name       string          `gorm:"type:varchar(100);not null" json:"name"`
	PriceAdd   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price_add"`
	IsActive   bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}
