package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods
const (
	PaymentMethodCash         = "CASH"
	PaymentMethodCard         = "CARD"
	PaymentMethodBkash        = "BKASH"
	PaymentMethodNagad        = "NAGAD"
	PaymentMethodRocket       = "ROCKET"
	PaymentMethodUpay         = "UPAY"
	PaymentMethodBankTransfer = "BANK_TRANSFER"
)

// Payment statuses
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

// Payment records one settlement against a bill. Several payments may
// apply to the same bill (split payment).
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	BillID        uint            `gorm:"not null;index" json:"bill_id"`
	Bill          *Bill           `gorm:"foreignKey:BillID" json:"-"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status        string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ReferenceID   string          `gorm:"type:varchar(64)" json:"reference_id,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}
