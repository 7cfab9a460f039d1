package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dinehub/restaurant-pos/apperrors"
	"github.com/dinehub/restaurant-pos/billing"
	"github.com/dinehub/restaurant-pos/models"
)

var paymentMethods = map[string]bool{
	models.PaymentMethodCash:         true,
	models.PaymentMethodCard:         true,
	models.PaymentMethodBkash:        true,
	models.PaymentMethodNagad:        true,
	models.PaymentMethodRocket:       true,
	models.PaymentMethodUpay:         true,
	models.PaymentMethodBankTransfer: true,
}

// BillingService generates bills from orders, applies point-in-time
// discounts over the bill's frozen line-item snapshot, and records
// payments until the bill settles.
type BillingService struct {
	DB    *gorm.DB
	Calc  billing.Calculator
	locks *entityLocks
}

func NewBillingService(db *gorm.DB, calc billing.Calculator) *BillingService {
	return &BillingService{DB: db, Calc: calc, locks: newEntityLocks()}
}

// GenerateBill snapshots the order's totals and non-cancelled lines
// into a new bill. One bill per order; later order mutations never
// touch the bill.
func (s *BillingService) GenerateBill(orderID uint) (*models.Bill, error) {
	unlock := s.locks.acquire("order-bill", orderID)
	defer unlock()

	var bill models.Bill
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("OrderItems").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.E(apperrors.KindNotFound, "order %d not found", orderID)
			}
			return err
		}
		if order.Status == models.OrderStatusCancelled {
			return apperrors.E(apperrors.KindValidation, "cannot bill cancelled order %s", order.OrderNumber)
		}

		var existing int64
		if err := tx.Model(&models.Bill{}).Where("order_id = ?", orderID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.E(apperrors.KindValidation, "bill already generated for order %s", order.OrderNumber)
		}

		number, err := s.nextBillNumber(tx)
		if err != nil {
			return err
		}

		bill = models.Bill{
			BillNumber:     number,
			OrderID:        order.ID,
			TotalAmount:    order.TotalAmount,
			TaxAmount:      order.TaxAmount,
			ServiceCharge:  order.ServiceCharge,
			DiscountAmount: order.DiscountAmount,
			FinalAmount:    order.FinalAmount,
		}
		if err := tx.Create(&bill).Error; err != nil {
			return err
		}

		for _, it := range order.OrderItems {
			if it.Status == models.ItemStatusCancelled {
				continue
			}
			name := fmt.Sprintf("menu item %d", it.MenuItemID)
			var menuItem models.MenuItem
			if err := tx.First(&menuItem, it.MenuItemID).Error; err == nil {
				name = menuItem.Name
			}
			billItem := models.BillItem{
				BillID:     bill.ID,
				MenuItemID: it.MenuItemID,
				Name:       name,
				Quantity:   it.Quantity,
				UnitPrice:  it.UnitPrice,
				TotalPrice: it.TotalPrice,
				Notes:      it.Notes,
			}
			if err := tx.Create(&billItem).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetBill(bill.ID)
}

// ApplyDiscount re-runs the derivation over the bill's frozen items
// with the given discount. Only allowed before any completed payment;
// the originating order is untouched.
func (s *BillingService) ApplyDiscount(billID uint, disc billing.Discount) (*models.Bill, error) {
	unlock := s.locks.acquire("bill", billID)
	defer unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		bill, err := s.loadBill(tx, billID)
		if err != nil {
			return err
		}
		if bill.IsPaid {
			return apperrors.E(apperrors.KindValidation, "bill %s is already paid", bill.BillNumber)
		}
		var completed int64
		err = tx.Model(&models.Payment{}).
			Where("bill_id = ? AND status = ?", billID, models.PaymentStatusCompleted).
			Count(&completed).Error
		if err != nil {
			return err
		}
		if completed > 0 {
			return apperrors.E(apperrors.KindValidation, "bill %s already has payments", bill.BillNumber)
		}

		totals, err := s.Calc.Totals(billing.LinesFromBillItems(bill.BillItems), disc)
		if err != nil {
			return err
		}

		bill.TotalAmount = totals.Subtotal
		bill.DiscountAmount = totals.Discount
		bill.TaxAmount = totals.Tax
		bill.ServiceCharge = totals.ServiceCharge
		bill.FinalAmount = totals.Final
		bill.UpdatedAt = time.Now()
		return tx.Save(bill).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return s.GetBill(billID)
}

// RecordPayment appends a completed payment. When completed payments
// cover the final amount the bill settles: isPaid flips and paidAt is
// stamped.
func (s *BillingService) RecordPayment(billID uint, amount decimal.Decimal, method string) (*models.Payment, error) {
	if !paymentMethods[method] {
		return nil, apperrors.E(apperrors.KindValidation, "unknown payment method %q", method)
	}
	if !amount.IsPositive() {
		return nil, apperrors.E(apperrors.KindValidation, "payment amount must be positive, got %s", amount)
	}

	unlock := s.locks.acquire("bill", billID)
	defer unlock()

	var payment models.Payment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		bill, err := s.loadBill(tx, billID)
		if err != nil {
			return err
		}
		if bill.IsPaid {
			return apperrors.E(apperrors.KindValidation, "bill %s is already paid", bill.BillNumber)
		}

		now := time.Now()
		payment = models.Payment{
			BillID:        billID,
			Amount:        amount.Round(2),
			PaymentMethod: method,
			Status:        models.PaymentStatusCompleted,
			ReferenceID:   uuid.NewString(),
			PaidAt:        &now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		var payments []models.Payment
		err = tx.Where("bill_id = ? AND status = ?", billID, models.PaymentStatusCompleted).
			Find(&payments).Error
		if err != nil {
			return err
		}
		paid := decimal.Zero
		for _, p := range payments {
			paid = paid.Add(p.Amount)
		}

		if paid.GreaterThanOrEqual(bill.FinalAmount) {
			bill.IsPaid = true
			bill.PaidAt = &now
			bill.UpdatedAt = now
			return tx.Save(bill).Error
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return &payment, nil
}

// SplitBill computes equal shares of the final amount. Pure read; the
// cent remainder lands on the first share (see DESIGN.md).
func (s *BillingService) SplitBill(billID uint, parts int) ([]decimal.Decimal, error) {
	bill, err := s.GetBill(billID)
	if err != nil {
		return nil, err
	}
	return billing.Split(bill.FinalAmount, parts)
}

// GetBill loads one bill with its snapshot and payments.
func (s *BillingService) GetBill(billID uint) (*models.Bill, error) {
	var bill models.Bill
	err := s.DB.Preload("BillItems").Preload("Payments").First(&bill, billID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "bill %d not found", billID)
		}
		return nil, err
	}
	return &bill, nil
}

// ListBills returns all bills, newest first.
func (s *BillingService) ListBills() ([]models.Bill, error) {
	var bills []models.Bill
	err := s.DB.Preload("Payments").Order("created_at desc").Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (s *BillingService) loadBill(tx *gorm.DB, billID uint) (*models.Bill, error) {
	var bill models.Bill
	err := tx.Preload("BillItems").First(&bill, billID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, "bill %d not found", billID)
		}
		return nil, err
	}
	return &bill, nil
}

// nextBillNumber mirrors the order numbering scheme with a BILL
// prefix, e.g. BILL-20250114-0003.
func (s *BillingService) nextBillNumber(tx *gorm.DB) (string, error) {
	today := time.Now().Format("20060102")
	var count int64
	err := tx.Model(&models.Bill{}).
		Where("bill_number LIKE ?", fmt.Sprintf("BILL-%s-%%", today)).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BILL-%s-%04d", today, count+1), nil
}
