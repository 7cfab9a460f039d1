package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dinehub/restaurant-pos/apperrors"
	"github.com/dinehub/restaurant-pos/models"
)

// TableService tracks table occupancy. Status changes driven by the
// order state machine run inside the order's transaction; Reserve and
// SetOutOfService are standalone.
type TableService struct {
	DB    *gorm.DB
	locks *entityLocks
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{DB: db, locks: newEntityLocks()}
}

// Assign marks the table OCCUPIED for a new dine-in order. The table
// must be AVAILABLE or RESERVED; OUT_OF_SERVICE or OCCUPIED by another
// active order is a conflict.
func (ts *TableService) Assign(tx *gorm.DB, tableID uint) (*models.Table, error) {
	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "table %d not found", tableID)
		}
		return nil, err
	}

	switch table.Status {
	case models.TableStatusAvailable, models.TableStatusReserved:
		// ok
	case models.TableStatusOccupied:
		return nil, apperrors.E(apperrors.KindTableNotAvailable, "table %s is occupied by another order", table.TableNumber)
	default:
		return nil, apperrors.E(apperrors.KindTableNotAvailable, "table %s is out of service", table.TableNumber)
	}

	table.Status = models.TableStatusOccupied
	table.ReservedAt = nil
	if err := tx.Save(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// Release returns the table to AVAILABLE. Called when the current
// order reaches a terminal status.
func (ts *TableService) Release(tx *gorm.DB, tableID uint) (*models.Table, error) {
	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "table %d not found", tableID)
		}
		return nil, err
	}

	table.Status = models.TableStatusAvailable
	table.ReservedAt = nil
	if err := tx.Save(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// Reserve marks the table RESERVED for the given time, independent of
// any order.
func (ts *TableService) Reserve(tableID uint, at time.Time) (*models.Table, error) {
	unlock := ts.locks.acquire("table", tableID)
	defer unlock()

	var table models.Table
	if err := ts.DB.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "table %d not found", tableID)
		}
		return nil, err
	}

	if table.Status == models.TableStatusOccupied {
		return nil, apperrors.E(apperrors.KindTableNotAvailable, "table %s is occupied", table.TableNumber)
	}
	if table.Status == models.TableStatusOutOfService {
		return nil, apperrors.E(apperrors.KindTableNotAvailable, "table %s is out of service", table.TableNumber)
	}

	table.Status = models.TableStatusReserved
	table.ReservedAt = &at
	if err := ts.DB.Save(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// ReleaseManual is the standalone variant of Release for staff
// endpoints (clearing a reservation, resetting a table). It refuses to
// free a table that still has an active order against it.
func (ts *TableService) ReleaseManual(tableID uint) (*models.Table, error) {
	unlock := ts.locks.acquire("table", tableID)
	defer unlock()

	var active int64
	err := ts.DB.Model(&models.Order{}).
		Where("table_id = ? AND status NOT IN ?", tableID, []string{models.OrderStatusServed, models.OrderStatusCancelled}).
		Count(&active).Error
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, apperrors.E(apperrors.KindTableNotAvailable, "table %d still has an active order", tableID)
	}

	return ts.Release(ts.DB, tableID)
}

// SetOutOfService takes the table off the floor. Occupied tables must
// be released first.
func (ts *TableService) SetOutOfService(tableID uint) (*models.Table, error) {
	unlock := ts.locks.acquire("table", tableID)
	defer unlock()

	var table models.Table
	if err := ts.DB.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "table %d not found", tableID)
		}
		return nil, err
	}

	if table.Status == models.TableStatusOccupied {
		return nil, apperrors.E(apperrors.KindTableNotAvailable, "table %s is occupied", table.TableNumber)
	}

	table.Status = models.TableStatusOutOfService
	table.ReservedAt = nil
	if err := ts.DB.Save(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}
