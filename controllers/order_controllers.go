package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dinehub/restaurant-pos/events"
	"github.com/dinehub/restaurant-pos/services"
	"github.com/dinehub/restaurant-pos/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> opens a PENDING order; dine-in occupies the table
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if userID, ok := c.Get("user_id"); ok {
		req.CreatedBy, _ = userID.(uint)
	}

	order, err := oc.Orders.CreateOrder(req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.OrderCreated(*order)
	utils.InfoLogger.Printf("Order %s created (%s, total=%s)", order.OrderNumber, order.OrderType, order.TotalAmount)
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetAllOrders
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orders.ListOrders(c.Query("status"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID := paramUint(c, "order_id")

	order, err := oc.Orders.GetOrder(orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// AddItem -> appends or merges a line while the order is editable
func (oc *OrderController) AddItem(c *gin.Context) {
	orderID := paramUint(c, "order_id")

	var req services.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.AddItem(orderID, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.OrderUpdated(*order)
	utils.RespondJSON(c, http.StatusOK, "Item added", order)
}

// UpdateItem -> quantity and/or notes; quantity 0 removes the line
func (oc *OrderController) UpdateItem(c *gin.Context) {
	orderID := paramUint(c, "order_id")
	itemID := paramUint(c, "item_id")

	var req struct {
		Quantity *int    `json:"quantity"`
		Notes    *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.GetOrder(orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if req.Quantity != nil {
		order, err = oc.Orders.SetItemQuantity(orderID, itemID, *req.Quantity)
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}
	}
	if req.Notes != nil && (req.Quantity == nil || *req.Quantity > 0) {
		order, err = oc.Orders.SetItemNotes(orderID, itemID, *req.Notes)
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}
	}

	events.OrderUpdated(*order)
	utils.RespondJSON(c, http.StatusOK, "Item updated", order)
}

// RemoveItem
func (oc *OrderController) RemoveItem(c *gin.Context) {
	orderID := paramUint(c, "order_id")
	itemID := paramUint(c, "item_id")

	order, err := oc.Orders.RemoveItem(orderID, itemID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.OrderUpdated(*order)
	utils.RespondJSON(c, http.StatusOK, "Item removed", order)
}

// AdvanceOrder -> exactly one step along the happy path
func (oc *OrderController) AdvanceOrder(c *gin.Context) {
	orderID := paramUint(c, "order_id")

	order, err := oc.Orders.Advance(orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.OrderUpdated(*order)
	utils.InfoLogger.Printf("Order %s advanced to %s", order.OrderNumber, order.Status)
	utils.RespondJSON(c, http.StatusOK, "Order advanced", order)
}

// CancelOrder -> the only path to CANCELLED
func (oc *OrderController) CancelOrder(c *gin.Context) {
	orderID := paramUint(c, "order_id")

	order, err := oc.Orders.Cancel(orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.OrderUpdated(*order)
	utils.InfoLogger.Printf("Order %s cancelled", order.OrderNumber)
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}

// UpdateOrderStatus -> explicit dropdown target
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID := paramUint(c, "order_id")

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.SetStatus(orderID, body.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.OrderUpdated(*order)
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

/*
========================================
 ITEM-LEVEL KITCHEN FLOW
========================================
*/

// StartCookingItem -> chef marks one line PENDING => IN_PREPARATION
func (oc *OrderController) StartCookingItem(c *gin.Context) {
	orderID := paramUint(c, "order_id")
	itemID := paramUint(c, "item_id")

	item, err := oc.Orders.StartItem(orderID, itemID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item in preparation", item)
}

// FinishCookingItem -> chef marks one line READY; the order follows
// when every line is done
func (oc *OrderController) FinishCookingItem(c *gin.Context) {
	orderID := paramUint(c, "order_id")
	itemID := paramUint(c, "item_id")

	item, err := oc.Orders.FinishItem(orderID, itemID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item ready", item)
}

// CancelItem -> drops the line from the totals
func (oc *OrderController) CancelItem(c *gin.Context) {
	orderID := paramUint(c, "order_id")
	itemID := paramUint(c, "item_id")

	order, err := oc.Orders.CancelItem(orderID, itemID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.OrderUpdated(*order)
	utils.RespondJSON(c, http.StatusOK, "Item cancelled", order)
}

// PrintKOT -> stamps the kitchen order ticket once
func (oc *OrderController) PrintKOT(c *gin.Context) {
	orderID := paramUint(c, "order_id")

	order, err := oc.Orders.MarkKOTPrinted(orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.KOTPrinted(*order)
	utils.RespondJSON(c, http.StatusOK, "KOT printed", order)
}

// GetKitchenDisplay -> orders the kitchen still has to cook
func (oc *OrderController) GetKitchenDisplay(c *gin.Context) {
	orders, err := oc.Orders.KitchenDisplay()
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen display orders", orders)
}

func paramUint(c *gin.Context, name string) uint {
	v, _ := strconv.Atoi(c.Param(name))
	return uint(v)
}
