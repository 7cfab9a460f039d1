package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dinehub/restaurant-pos/apperrors"
	"github.com/dinehub/restaurant-pos/billing"
	"github.com/dinehub/restaurant-pos/models"
	"github.com/dinehub/restaurant-pos/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Category{},
		&models.MenuItem{},
		&models.MenuVariant{},
		&models.Order{},
		&models.OrderItem{},
		&models.Bill{},
		&models.BillItem{},
		&models.Payment{},
	)
	require.NoError(t, err)
	return db
}

// seedCatalog creates a category, two menu items (burger 12.99 with a
// +2.00 cheese variant, pizza 50.00) and two tables.
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	category := models.Category{Name: "Mains"}
	require.NoError(t, db.Create(&category).Error)

	burger := models.MenuItem{
		CategoryID:  category.ID,
		Name:        "Beef Burger",
		BasePrice:   decimal.RequireFromString("12.99"),
		IsAvailable: true,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&burger).Error)
	require.NoError(t, db.Create(&models.MenuVariant{
		MenuItemID: burger.ID,
		Name:       "Extra Cheese",
		PriceAdd:   decimal.RequireFromString("2.00"),
		IsActive:   true,
	}).Error)

	pizza := models.MenuItem{
		CategoryID:  category.ID,
		Name:        "Margherita Pizza",
		BasePrice:   decimal.RequireFromString("50.00"),
		IsAvailable: true,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&pizza).Error)

	require.NoError(t, db.Create(&models.Table{TableNumber: "T1", Capacity: 4, Status: models.TableStatusAvailable}).Error)
	require.NoError(t, db.Create(&models.Table{TableNumber: "T2", Capacity: 2, Status: models.TableStatusAvailable}).Error)
}

func newOrderService(db *gorm.DB) *OrderService {
	calc := billing.New(decimal.RequireFromString("0.10"), decimal.RequireFromString("0.05"))
	return NewOrderService(db, calc, NewTableService(db))
}

func uintPtr(v uint) *uint { return &v }

func TestCreateDineInOrderOccupiesTableAndDerivesTotals(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeDineIn,
		TableID:   uintPtr(1),
		Items: []ItemRequest{
			{MenuItemID: 1, Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Contains(t, order.OrderNumber, "ORD-")
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.98")), "subtotal %s", order.TotalAmount)
	assert.True(t, order.TaxAmount.Equal(decimal.RequireFromString("2.60")), "tax %s", order.TaxAmount)
	assert.True(t, order.ServiceCharge.Equal(decimal.RequireFromString("1.30")), "service %s", order.ServiceCharge)
	assert.True(t, order.FinalAmount.Equal(decimal.RequireFromString("29.88")), "final %s", order.FinalAmount)

	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableStatusOccupied, table.Status)
}

func TestCreateOrderValidation(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	_, err := svc.CreateOrder(CreateOrderRequest{OrderType: models.OrderTypeDineIn})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.CreateOrder(CreateOrderRequest{OrderType: models.OrderTypeTakeaway, TableID: uintPtr(1)})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.CreateOrder(CreateOrderRequest{OrderType: "DRIVE_THROUGH"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 0}},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestCreateOrderOnOccupiedTableConflicts(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	_, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeDineIn,
		TableID:   uintPtr(1),
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeDineIn,
		TableID:   uintPtr(1),
		Items:     []ItemRequest{{MenuItemID: 2, Quantity: 1}},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindTableNotAvailable))

	// the failed order must not have been half-created
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddItemMergesByIdentity(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	// same identity -> merged line
	order, err = svc.AddItem(order.ID, ItemRequest{MenuItemID: 1, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, 3, order.OrderItems[0].Quantity)

	// different notes -> separate line
	order, err = svc.AddItem(order.ID, ItemRequest{MenuItemID: 1, Quantity: 1, Notes: "no onions"})
	require.NoError(t, err)
	assert.Len(t, order.OrderItems, 2)

	// different variant -> separate line with the surcharge snapshot
	order, err = svc.AddItem(order.ID, ItemRequest{MenuItemID: 1, VariantID: uintPtr(1), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 3)

	var withVariant *models.OrderItem
	for i := range order.OrderItems {
		if order.OrderItems[i].VariantID != nil {
			withVariant = &order.OrderItems[i]
		}
	}
	require.NotNil(t, withVariant)
	assert.True(t, withVariant.UnitPrice.Equal(decimal.RequireFromString("14.99")), "unit price %s", withVariant.UnitPrice)
}

func TestSetItemQuantityZeroRemovesLine(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items: []ItemRequest{
			{MenuItemID: 1, Quantity: 2},
			{MenuItemID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 2)
	itemID := order.OrderItems[0].ID

	order, err = svc.SetItemQuantity(order.ID, itemID, 0)
	require.NoError(t, err)
	assert.Len(t, order.OrderItems, 1)

	// totals follow the removal: 50.00 + 10% tax + 5% service
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, order.FinalAmount.Equal(decimal.RequireFromString("57.50")), "final %s", order.FinalAmount)

	_, err = svc.SetItemQuantity(order.ID, itemID, 1)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestAdvanceWalksHappyPathAndStopsAtServed(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeDineIn,
		TableID:   uintPtr(1),
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	for _, want := range []string{
		models.OrderStatusInPreparation,
		models.OrderStatusReady,
		models.OrderStatusServed,
	} {
		order, err = svc.Advance(order.ID)
		require.NoError(t, err)
		assert.Equal(t, want, order.Status)
	}

	// serving a dine-in order frees its table
	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableStatusAvailable, table.Status)

	_, err = svc.Advance(order.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
}

func TestItemMutationsRejectedOutsideEditableStatuses(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	itemID := order.OrderItems[0].ID

	// IN_PREPARATION is still editable
	_, err = svc.Advance(order.ID)
	require.NoError(t, err)
	_, err = svc.AddItem(order.ID, ItemRequest{MenuItemID: 2, Quantity: 1})
	require.NoError(t, err)

	// READY is not
	_, err = svc.Advance(order.ID)
	require.NoError(t, err)
	_, err = svc.AddItem(order.ID, ItemRequest{MenuItemID: 2, Quantity: 1})
	assert.True(t, apperrors.Is(err, apperrors.KindOrderNotEditable))
	_, err = svc.SetItemQuantity(order.ID, itemID, 5)
	assert.True(t, apperrors.Is(err, apperrors.KindOrderNotEditable))
	_, err = svc.RemoveItem(order.ID, itemID)
	assert.True(t, apperrors.Is(err, apperrors.KindOrderNotEditable))
}

func TestCancelReleasesTableAndIsTerminal(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeDineIn,
		TableID:   uintPtr(2),
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Advance(order.ID)
	require.NoError(t, err)

	order, err = svc.Cancel(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)

	var table models.Table
	require.NoError(t, db.First(&table, 2).Error)
	assert.Equal(t, models.TableStatusAvailable, table.Status)

	_, err = svc.Cancel(order.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
}

func TestSetStatusRules(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(order.ID, models.OrderStatusCancelled)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))

	_, err = svc.SetStatus(order.ID, "DONE")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	// skipping ahead is allowed for explicit targets
	order, err = svc.SetStatus(order.ID, models.OrderStatusServed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusServed, order.Status)

	_, err = svc.SetStatus(order.ID, models.OrderStatusReady)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
}

func TestItemKitchenFlowAdvancesOrderWhenAllReady(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items: []ItemRequest{
			{MenuItemID: 1, Quantity: 1},
			{MenuItemID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 2)
	first, second := order.OrderItems[0].ID, order.OrderItems[1].ID

	_, err = svc.Advance(order.ID) // order -> IN_PREPARATION
	require.NoError(t, err)

	item, err := svc.StartItem(order.ID, first)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusInPreparation, item.Status)

	// cannot finish an item that was never started
	_, err = svc.FinishItem(order.ID, second)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))

	_, err = svc.FinishItem(order.ID, first)
	require.NoError(t, err)
	order, err = svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInPreparation, order.Status, "one item still pending")

	_, err = svc.StartItem(order.ID, second)
	require.NoError(t, err)
	_, err = svc.FinishItem(order.ID, second)
	require.NoError(t, err)

	order, err = svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReady, order.Status, "all items ready")
}

func TestFinishItemStepsAndAdvancesUnderOneLock(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	itemID := order.OrderItems[0].ID

	_, err = svc.Advance(order.ID)
	require.NoError(t, err)
	_, err = svc.StartItem(order.ID, itemID)
	require.NoError(t, err)

	unlock := svc.locks.acquire("order", order.ID)
	done := make(chan error, 1)
	go func() {
		_, err := svc.FinishItem(order.ID, itemID)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("finish did not wait for the order lock")
	case <-time.After(50 * time.Millisecond):
	}

	// nothing of the finish is visible while the lock is held
	fresh, err := svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInPreparation, fresh.Status)
	require.Len(t, fresh.OrderItems, 1)
	assert.Equal(t, models.ItemStatusInPreparation, fresh.OrderItems[0].Status)

	unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("finish never ran after the lock was released")
	}

	// item step and order advance land together
	fresh, err = svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReady, fresh.Status)
	assert.Equal(t, models.ItemStatusReady, fresh.OrderItems[0].Status)
}

func TestCancelItemDropsLineFromTotals(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items: []ItemRequest{
			{MenuItemID: 1, Quantity: 2},
			{MenuItemID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	var pizzaLine uint
	for _, it := range order.OrderItems {
		if it.MenuItemID == 2 {
			pizzaLine = it.ID
		}
	}
	require.NotZero(t, pizzaLine)

	order, err = svc.CancelItem(order.ID, pizzaLine)
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.98")), "subtotal %s", order.TotalAmount)
	assert.True(t, order.FinalAmount.Equal(decimal.RequireFromString("29.88")), "final %s", order.FinalAmount)

	// the line survives as CANCELLED for the audit trail
	var item models.OrderItem
	require.NoError(t, db.First(&item, pizzaLine).Error)
	assert.Equal(t, models.ItemStatusCancelled, item.Status)
}

func TestMarkKOTPrintedOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	order, err = svc.MarkKOTPrinted(order.ID)
	require.NoError(t, err)
	assert.True(t, order.KOTPrinted)
	assert.NotNil(t, order.KOTPrintedAt)

	_, err = svc.MarkKOTPrinted(order.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestUnavailableMenuItemRejected(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", 1).
		Update("is_available", false).Error)

	_, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 99, Quantity: 1}},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestKitchenDisplayListsActiveOrdersOnly(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := newOrderService(db)

	pending, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	served, err := svc.CreateOrder(CreateOrderRequest{
		OrderType: models.OrderTypeTakeaway,
		Items:     []ItemRequest{{MenuItemID: 2, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.SetStatus(served.ID, models.OrderStatusServed)
	require.NoError(t, err)

	orders, err := svc.KitchenDisplay()
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, pending.ID, orders[0].ID)
}
