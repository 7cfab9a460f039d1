package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dinehub/restaurant-pos/apperrors"
	"github.com/dinehub/restaurant-pos/billing"
	"github.com/dinehub/restaurant-pos/models"
)

// nextStatus is the fixed happy-path sequence. CANCELLED is reachable
// only through Cancel.
var nextStatus = map[string]string{
	models.OrderStatusPending:       models.OrderStatusInPreparation,
	models.OrderStatusInPreparation: models.OrderStatusReady,
	models.OrderStatusReady:         models.OrderStatusServed,
}

// OrderService owns the order item collection and the order state
// machine, including table occupancy side effects. Every mutation is
// one transaction; cross-entity changes either fully commit or leave
// prior state intact.
type OrderService struct {
	DB     *gorm.DB
	Calc   billing.Calculator
	Tables *TableService
	locks  *entityLocks
}

// NewOrderService shares the table service's lock registry: table
// transitions driven by the order state machine must serialize against
// standalone table operations on the same id.
func NewOrderService(db *gorm.DB, calc billing.Calculator, tables *TableService) *OrderService {
	return &OrderService{DB: db, Calc: calc, Tables: tables, locks: tables.locks}
}

type ItemRequest struct {
	MenuItemID uint   `json:"menu_item_id" binding:"required"`
	VariantID  *uint  `json:"variant_id"`
	Quantity   int    `json:"quantity" binding:"required"`
	Notes      string `json:"notes"`
}

type CreateOrderRequest struct {
	OrderType     string        `json:"order_type" binding:"required"`
	TableID       *uint         `json:"table_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	Notes         string        `json:"notes"`
	Items         []ItemRequest `json:"items"`
	CreatedBy     uint          `json:"-"`
}

// CreateOrder opens a PENDING order. A dine-in order must name exactly
// one table and occupies it in the same transaction; takeaway and
// delivery orders must not reference a table.
func (s *OrderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	switch req.OrderType {
	case models.OrderTypeDineIn:
		if req.TableID == nil {
			return nil, apperrors.E(apperrors.KindValidation, "dine-in order requires a table")
		}
	case models.OrderTypeTakeaway, models.OrderTypeDelivery:
		if req.TableID != nil {
			return nil, apperrors.E(apperrors.KindValidation, "%s order must not reference a table", req.OrderType)
		}
	default:
		return nil, apperrors.E(apperrors.KindValidation, "unknown order type %q", req.OrderType)
	}
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, apperrors.E(apperrors.KindValidation, "quantity must be at least 1, got %d", it.Quantity)
		}
	}

	if req.TableID != nil {
		unlock := s.locks.acquire("table", *req.TableID)
		defer unlock()
	}

	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		number, err := s.nextOrderNumber(tx)
		if err != nil {
			return err
		}

		order = models.Order{
			OrderNumber:   number,
			TableID:       req.TableID,
			OrderType:     req.OrderType,
			Status:        models.OrderStatusPending,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Notes:         req.Notes,
			CreatedBy:     req.CreatedBy,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, it := range req.Items {
			if err := s.appendOrMerge(tx, &order, it); err != nil {
				return err
			}
		}
		if err := s.recomputeTotals(tx, &order); err != nil {
			return err
		}

		if req.TableID != nil {
			if _, err := s.Tables.Assign(tx, *req.TableID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetOrder(order.ID)
}

// AddItem appends a line or, when a non-cancelled line with the same
// (menu item, variant, notes) identity exists, increments its quantity
// instead of duplicating.
func (s *OrderService) AddItem(orderID uint, req ItemRequest) (*models.Order, error) {
	if req.Quantity < 1 {
		return nil, apperrors.E(apperrors.KindValidation, "quantity must be at least 1, got %d", req.Quantity)
	}

	unlock := s.locks.acquire("order", orderID)
	defer unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadEditable(tx, orderID)
		if err != nil {
			return err
		}
		if err := s.appendOrMerge(tx, order, req); err != nil {
			return err
		}
		return s.recomputeTotals(tx, order)
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetOrder(orderID)
}

// SetItemQuantity updates a line's quantity. Zero or less removes the
// line entirely instead of keeping a zero-quantity row.
func (s *OrderService) SetItemQuantity(orderID, itemID uint, quantity int) (*models.Order, error) {
	unlock := s.locks.acquire("order", orderID)
	defer unlock()
	return s.setItemQuantity(orderID, itemID, quantity)
}

func (s *OrderService) setItemQuantity(orderID, itemID uint, quantity int) (*models.Order, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadEditable(tx, orderID)
		if err != nil {
			return err
		}
		item, err := s.findItem(tx, orderID, itemID)
		if err != nil {
			return err
		}

		if quantity <= 0 {
			if err := tx.Delete(item).Error; err != nil {
				return err
			}
		} else {
			item.Quantity = quantity
			item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
			if err := tx.Save(item).Error; err != nil {
				return err
			}
		}
		return s.recomputeTotals(tx, order)
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetOrder(orderID)
}

// RemoveItem removes a line unconditionally.
func (s *OrderService) RemoveItem(orderID, itemID uint) (*models.Order, error) {
	unlock := s.locks.acquire("order", orderID)
	defer unlock()
	return s.setItemQuantity(orderID, itemID, 0)
}

// SetItemNotes updates a line's free-text notes. Totals are untouched.
func (s *OrderService) SetItemNotes(orderID, itemID uint, notes string) (*models.Order, error) {
	unlock := s.locks.acquire("order", orderID)
	defer unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadEditable(tx, orderID); err != nil {
			return err
		}
		item, err := s.findItem(tx, orderID, itemID)
		if err != nil {
			return err
		}
		item.Notes = notes
		return tx.Save(item).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetOrder(orderID)
}

// lockOrderAndTable acquires the order lock and, when the order sits
// on a table, the table lock. Status transitions can free the table,
// so they must hold both; TableID never changes after creation, making
// the pre-read safe. Lock order is always order first, then table.
func (s *OrderService) lockOrderAndTable(orderID uint) func() {
	unlockOrder := s.locks.acquire("order", orderID)

	var order models.Order
	if err := s.DB.Select("table_id").First(&order, orderID).Error; err != nil || order.TableID == nil {
		return unlockOrder
	}
	unlockTable := s.locks.acquire("table", *order.TableID)
	return func() {
		unlockTable()
		unlockOrder()
	}
}

// Advance moves the order exactly one step along PENDING ->
// IN_PREPARATION -> READY -> SERVED. Serving a dine-in order frees its
// table in the same transaction.
func (s *OrderService) Advance(orderID uint) (*models.Order, error) {
	unlock := s.lockOrderAndTable(orderID)
	defer unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		next, ok := nextStatus[order.Status]
		if !ok {
			return apperrors.E(apperrors.KindInvalidTransition, "order %s is %s and cannot advance", order.OrderNumber, order.Status)
		}
		return s.applyStatus(tx, order, next)
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetOrder(orderID)
}

// Cancel is the only path to CANCELLED. Allowed from any non-terminal
// status; cancelling a dine-in order frees its table.
func (s *OrderService) Cancel(orderID uint) (*models.Order, error) {
	unlock := s.lockOrderAndTable(orderID)
	defer unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.IsTerminal() {
			return apperrors.E(apperrors.KindInvalidTransition, "order %s is already %s", order.OrderNumber, order.Status)
		}
		return s.applyStatus(tx, order, models.OrderStatusCancelled)
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetOrder(orderID)
}

// SetStatus applies an explicit target status picked in the UI. It
// refuses to leave a terminal status and refuses CANCELLED as a target
// (Cancel is the only way there); otherwise any forward status is
// accepted, including skips.
func (s *OrderService) SetStatus(orderID uint, target string) (*models.Order, error) {
	switch target {
	case models.OrderStatusPending, models.OrderStatusInPreparation,
		models.OrderStatusReady, models.OrderStatusServed:
		// ok
	case models.OrderStatusCancelled:
		return nil, apperrors.E(apperrors.KindInvalidTransition, "use cancel to reach CANCELLED")
	default:
		return nil, apperrors.E(apperrors.KindValidation, "unknown status %q", target)
	}

	unlock := s.lockOrderAndTable(orderID)
	defer unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.IsTerminal() {
			return apperrors.E(apperrors.KindInvalidTransition, "order %s is already %s", order.OrderNumber, order.Status)
		}
		if order.Status == target {
			return nil
		}
		return s.applyStatus(tx, order, target)
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetOrder(orderID)
}

// StartItem moves one line from PENDING to IN_PREPARATION (kitchen
// starts cooking it).
func (s *OrderService) StartItem(orderID, itemID uint) (*models.OrderItem, error) {
	return s.stepItem(orderID, itemID, models.ItemStatusPending, models.ItemStatusInPreparation)
}

// FinishItem moves one line from IN_PREPARATION to READY. When every
// non-cancelled line is READY and the order is IN_PREPARATION, the
// order itself advances to READY. Item step and order advance run in
// one transaction under one lock so no item mutation can slip between
// them.
func (s *OrderService) FinishItem(orderID, itemID uint) (*models.OrderItem, error) {
	unlock := s.locks.acquire("order", orderID)
	defer unlock()

	var item *models.OrderItem
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		item, err = s.findItem(tx, orderID, itemID)
		if err != nil {
			return err
		}
		if item.Status != models.ItemStatusInPreparation {
			return apperrors.E(apperrors.KindInvalidTransition, "item %d is %s, expected %s",
				item.ID, item.Status, models.ItemStatusInPreparation)
		}
		item.Status = models.ItemStatusReady
		item.UpdatedAt = time.Now()
		if err := tx.Save(item).Error; err != nil {
			return err
		}

		if order.Status != models.OrderStatusInPreparation {
			return nil
		}
		var notReady int64
		err = tx.Model(&models.OrderItem{}).
			Where("order_id = ? AND status NOT IN ?", orderID,
				[]string{models.ItemStatusReady, models.ItemStatusCancelled}).
			Count(&notReady).Error
		if err != nil {
			return err
		}
		if notReady == 0 {
			return s.applyStatus(tx, order, models.OrderStatusReady)
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return item, nil
}

// CancelItem cancels a single line and recomputes the order's totals;
// cancelled lines drop out of the subtotal.
func (s *OrderService) CancelItem(orderID, itemID uint) (*models.Order, error) {
	unlock := s.locks.acquire("order", orderID)
	defer unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.IsTerminal() {
			return apperrors.E(apperrors.KindOrderNotEditable, "order %s is %s", order.OrderNumber, order.Status)
		}
		item, err := s.findItem(tx, orderID, itemID)
		if err != nil {
			return err
		}
		if item.Status == models.ItemStatusCancelled || item.Status == models.ItemStatusServed {
			return apperrors.E(apperrors.KindInvalidTransition, "item %d is already %s", item.ID, item.Status)
		}

		item.Status = models.ItemStatusCancelled
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		return s.recomputeTotals(tx, order)
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetOrder(orderID)
}

// MarkKOTPrinted stamps the kitchen order ticket print exactly once.
func (s *OrderService) MarkKOTPrinted(orderID uint) (*models.Order, error) {
	unlock := s.locks.acquire("order", orderID)
	defer unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.IsTerminal() {
			return apperrors.E(apperrors.KindInvalidTransition, "order %s is already %s", order.OrderNumber, order.Status)
		}
		if order.KOTPrinted {
			return apperrors.E(apperrors.KindValidation, "KOT already printed for order %s", order.OrderNumber)
		}
		now := time.Now()
		order.KOTPrinted = true
		order.KOTPrintedAt = &now
		return tx.Save(order).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetOrder(orderID)
}

// GetOrder loads one order with its items.
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.Preload("OrderItems").Preload("Table").First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "order %d not found", orderID)
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders returns all orders, optionally filtered by status.
func (s *OrderService) ListOrders(status string) ([]models.Order, error) {
	q := s.DB.Preload("OrderItems").Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// KitchenDisplay lists the orders the kitchen still has to work on.
func (s *OrderService) KitchenDisplay() ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.Preload("OrderItems").Preload("OrderItems.MenuItem").
		Where("status IN ?", []string{models.OrderStatusPending, models.OrderStatusInPreparation}).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

/*
========================================
 INTERNAL HELPERS
========================================
*/

// applyStatus writes the new status and performs the table side
// effect: a dine-in order entering a terminal status frees its table.
func (s *OrderService) applyStatus(tx *gorm.DB, order *models.Order, target string) error {
	order.Status = target
	order.UpdatedAt = time.Now()
	if err := tx.Save(order).Error; err != nil {
		return err
	}

	if target == models.OrderStatusServed {
		err := tx.Model(&models.OrderItem{}).
			Where("order_id = ? AND status <> ?", order.ID, models.ItemStatusCancelled).
			Update("status", models.ItemStatusServed).Error
		if err != nil {
			return err
		}
	}

	terminal := target == models.OrderStatusServed || target == models.OrderStatusCancelled
	if terminal && order.OrderType == models.OrderTypeDineIn && order.TableID != nil {
		if _, err := s.Tables.Release(tx, *order.TableID); err != nil {
			return err
		}
	}
	return nil
}

// appendOrMerge inserts a priced line, coalescing repeated adds of the
// same (menu item, variant, notes) identity.
func (s *OrderService) appendOrMerge(tx *gorm.DB, order *models.Order, req ItemRequest) error {
	unitPrice, err := s.snapshotPrice(tx, req.MenuItemID, req.VariantID)
	if err != nil {
		return err
	}

	var existing models.OrderItem
	q := tx.Where("order_id = ? AND menu_item_id = ? AND notes = ? AND status <> ?",
		order.ID, req.MenuItemID, req.Notes, models.ItemStatusCancelled)
	if req.VariantID != nil {
		q = q.Where("variant_id = ?", *req.VariantID)
	} else {
		q = q.Where("variant_id IS NULL")
	}
	err = q.First(&existing).Error
	switch {
	case err == nil:
		existing.Quantity += req.Quantity
		existing.TotalPrice = existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity)))
		return tx.Save(&existing).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := models.OrderItem{
			OrderID:    order.ID,
			MenuItemID: req.MenuItemID,
			VariantID:  req.VariantID,
			Quantity:   req.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
			Notes:      req.Notes,
			Status:     models.ItemStatusPending,
		}
		return tx.Create(&item).Error
	default:
		return err
	}
}

// snapshotPrice resolves the catalog price at add time: base price
// plus the variant surcharge.
func (s *OrderService) snapshotPrice(tx *gorm.DB, menuItemID uint, variantID *uint) (decimal.Decimal, error) {
	var menuItem models.MenuItem
	if err := tx.First(&menuItem, menuItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, apperrors.E(apperrors.KindNotFound, "menu item %d not found", menuItemID)
		}
		return decimal.Zero, err
	}
	if !menuItem.IsActive || !menuItem.IsAvailable {
		return decimal.Zero, apperrors.E(apperrors.KindValidation, "menu item %q is not available", menuItem.Name)
	}

	price := menuItem.BasePrice
	if variantID != nil {
		var variant models.MenuVariant
		if err := tx.First(&variant, *variantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decimal.Zero, apperrors.E(apperrors.KindNotFound, "variant %d not found", *variantID)
			}
			return decimal.Zero, err
		}
		if variant.MenuItemID != menuItemID {
			return decimal.Zero, apperrors.E(apperrors.KindValidation, "variant %d does not belong to menu item %d", *variantID, menuItemID)
		}
		if !variant.IsActive {
			return decimal.Zero, apperrors.E(apperrors.KindValidation, "variant %q is not active", variant.Name)
		}
		price = price.Add(variant.PriceAdd)
	}
	return price, nil
}

// recomputeTotals re-derives the order's monetary fields from its
// current lines. finalAmount is never set independently.
func (s *OrderService) recomputeTotals(tx *gorm.DB, order *models.Order) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}

	lines := billing.LinesFromOrderItems(items)
	totals, err := s.Calc.Totals(lines, billing.Discount{})
	if err != nil {
		return err
	}

	if order.DiscountAmount.IsPositive() {
		disc := order.DiscountAmount
		if disc.GreaterThan(totals.Subtotal) {
			disc = totals.Subtotal
		}
		totals, err = s.Calc.Totals(lines, billing.AmountDiscount(disc))
		if err != nil {
			return err
		}
	}

	order.TotalAmount = totals.Subtotal
	order.DiscountAmount = totals.Discount
	order.TaxAmount = totals.Tax
	order.ServiceCharge = totals.ServiceCharge
	order.FinalAmount = totals.Final
	order.UpdatedAt = time.Now()
	return tx.Save(order).Error
}

func (s *OrderService) loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "order %d not found", orderID)
		}
		return nil, err
	}
	return &order, nil
}

// loadEditable loads an order and rejects item mutations outside the
// editable statuses.
func (s *OrderService) loadEditable(tx *gorm.DB, orderID uint) (*models.Order, error) {
	order, err := s.loadOrder(tx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsEditable() {
		return nil, apperrors.E(apperrors.KindOrderNotEditable, "order %s is %s and cannot be modified", order.OrderNumber, order.Status)
	}
	return order, nil
}

func (s *OrderService) findItem(tx *gorm.DB, orderID, itemID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	err := tx.Where("order_id = ?", orderID).First(&item, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "order item %d not found", itemID)
		}
		return nil, err
	}
	return &item, nil
}

// stepItem applies a single forward step to one line's status.
func (s *OrderService) stepItem(orderID, itemID uint, from, to string) (*models.OrderItem, error) {
	unlock := s.locks.acquire("order", orderID)
	defer unlock()

	var item *models.OrderItem
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadOrder(tx, orderID); err != nil {
			return err
		}
		var err error
		item, err = s.findItem(tx, orderID, itemID)
		if err != nil {
			return err
		}
		if item.Status != from {
			return apperrors.E(apperrors.KindInvalidTransition, "item %d is %s, expected %s", item.ID, item.Status, from)
		}
		item.Status = to
		item.UpdatedAt = time.Now()
		return tx.Save(item).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return item, nil
}

// nextOrderNumber produces the next sequential human-readable number
// for today, e.g. ORD-20250114-0007.
func (s *OrderService) nextOrderNumber(tx *gorm.DB) (string, error) {
	today := time.Now().Format("20060102")
	var count int64
	err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", fmt.Sprintf("ORD-%s-%%", today)).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%04d", today, count+1), nil
}

// wrapTxErr keeps service-level error kinds as-is and tags anything
// else (driver errors, failed commits) as a failed transition.
func wrapTxErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.KindTransitionFailed, err, "state change could not be applied")
}
