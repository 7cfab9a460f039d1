package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dinehub/restaurant-pos/billing"
	"github.com/dinehub/restaurant-pos/events"
	"github.com/dinehub/restaurant-pos/services"
	"github.com/dinehub/restaurant-pos/utils"
)

type BillingController struct {
	Billing *services.BillingService
}

func NewBillingController(b *services.BillingService) *BillingController {
	return &BillingController{Billing: b}
}

// GenerateBill -> freezes the order totals into an immutable snapshot
func (bc *BillingController) GenerateBill(c *gin.Context) {
	orderID := paramUint(c, "order_id")

	bill, err := bc.Billing.GenerateBill(orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.BillGenerated(*bill)
	utils.InfoLogger.Printf("Bill %s generated for order %d (final=%s)", bill.BillNumber, orderID, bill.FinalAmount)
	utils.RespondJSON(c, http.StatusCreated, "Bill generated", bill)
}

// GetAllBills
func (bc *BillingController) GetAllBills(c *gin.Context) {
	bills, err := bc.Billing.ListBills()
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bills", bills)
}

// GetBillByID
func (bc *BillingController) GetBillByID(c *gin.Context) {
	billID := paramUint(c, "bill_id")

	bill, err := bc.Billing.GetBill(billID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill detail", bill)
}

// ApplyDiscount -> percent or absolute, never both, only before payment
func (bc *BillingController) ApplyDiscount(c *gin.Context) {
	billID := paramUint(c, "bill_id")

	var body struct {
		Percent *float64 `json:"percent"`
		Amount  *string  `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var disc billing.Discount
	if body.Percent != nil {
		p := decimal.NewFromFloat(*body.Percent)
		disc.Percent = &p
	}
	if body.Amount != nil {
		a, err := decimal.NewFromString(*body.Amount)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		disc.Amount = &a
	}

	bill, err := bc.Billing.ApplyDiscount(billID, disc)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Discount applied", bill)
}

// RecordPayment -> settles the bill once completed payments cover it
func (bc *BillingController) RecordPayment(c *gin.Context) {
	billID := paramUint(c, "bill_id")

	var body struct {
		Amount string `json:"amount" binding:"required"`
		Method string `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := bc.Billing.RecordPayment(billID, amount, body.Method)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	bill, err := bc.Billing.GetBill(billID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if bill.IsPaid {
		events.BillSettled(*bill)
		utils.InfoLogger.Printf("Bill %s settled", bill.BillNumber)
	}

	utils.RespondJSON(c, http.StatusCreated, "Payment recorded", gin.H{
		"payment": payment,
		"bill":    bill,
	})
}

// SplitBill -> even shares for display, rounding to the first guest
func (bc *BillingController) SplitBill(c *gin.Context) {
	billID := paramUint(c, "bill_id")

	var body struct {
		Parts int `json:"parts" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	shares, err := bc.Billing.SplitBill(billID, body.Parts)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill split", gin.H{"shares": shares})
}
