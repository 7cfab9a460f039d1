package models

import "time"

// Table statuses
const (
	TableStatusAvailable    = "AVAILABLE"
	TableStatusOccupied     = "OCCUPIED"
	TableStatusReserved     = "RESERVED"
	TableStatusOutOfService = "OUT_OF_SERVICE"
)

type Table struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TableNumber string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"table_number"`
	Capacity    int        `gorm:"not null;default:2" json:"capacity"`
	Status      string     `gorm:"type:varchar(20);not null;default:'AVAILABLE'" json:"status"`
	Location    string     `gorm:"type:varchar(100)" json:"location,omitempty"`
	ReservedAt  *time.Time `json:"reserved_at,omitempty"`
	CreatedBy   uint       `json:"created_by"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}
