package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dinehub/restaurant-pos/billing"
	"github.com/dinehub/restaurant-pos/controllers"
	"github.com/dinehub/restaurant-pos/middlewares"
	"github.com/dinehub/restaurant-pos/services"
)

func SetupRouter(db *gorm.DB, calc billing.Calculator) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware())
	r.Use(middlewares.LoggerMiddleware())
	// 50 requests per second per IP; must be registered before the
	// routes it guards
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	tableSvc := services.NewTableService(db)
	orderSvc := services.NewOrderService(db, calc, tableSvc)
	billingSvc := services.NewBillingService(db, calc)

	userCtrl := controllers.NewUserController(db)
	categoryCtrl := controllers.NewCategoryController(db)
	menuCtrl := controllers.NewMenuController(db)
	tableCtrl := controllers.NewTableController(db, tableSvc)
	orderCtrl := controllers.NewOrderController(orderSvc)
	billingCtrl := controllers.NewBillingController(billingSvc)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Menu browsing needs no login
	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/menus", menuCtrl.GetAllMenuItems)
	r.GET("/menus/:menu_id", menuCtrl.GetMenuItemByID)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)

	// CATEGORIES (admin)
	admin := auth.Group("/")
	admin.Use(middlewares.RequireRoles("admin"))
	{
		admin.POST("/categories", categoryCtrl.CreateCategory)
		admin.PATCH("/categories/:cat_id", categoryCtrl.UpdateCategory)
		admin.DELETE("/categories/:cat_id", categoryCtrl.DeleteCategory)

		admin.POST("/menus", menuCtrl.CreateMenuItem)
		admin.PATCH("/menus/:menu_id", menuCtrl.UpdateMenuItem)
		admin.DELETE("/menus/:menu_id", menuCtrl.DeleteMenuItem)
		admin.POST("/menus/:menu_id/variants", menuCtrl.CreateVariant)

		admin.POST("/tables", tableCtrl.CreateTable)
		admin.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	}

	auth.GET("/categories/:cat_id", categoryCtrl.GetCategoryByID)

	// TABLES (staff/admin)
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.POST("/tables/:table_id/reserve", tableCtrl.ReserveTable)
	auth.POST("/tables/:table_id/release", tableCtrl.ReleaseTable)
	auth.POST("/tables/:table_id/out-of-service", tableCtrl.SetTableOutOfService)

	// ORDERS (staff/admin)
	auth.POST("/orders", orderCtrl.CreateOrder)
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.POST("/orders/:order_id/items", orderCtrl.AddItem)
	auth.PATCH("/orders/:order_id/items/:item_id", orderCtrl.UpdateItem)
	auth.DELETE("/orders/:order_id/items/:item_id", orderCtrl.RemoveItem)
	auth.POST("/orders/:order_id/advance", orderCtrl.AdvanceOrder)
	auth.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)
	auth.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	auth.POST("/orders/:order_id/kot", orderCtrl.PrintKOT)

	// KDS item-level (Chef)
	auth.POST("/orders/:order_id/items/:item_id/start", orderCtrl.StartCookingItem)
	auth.POST("/orders/:order_id/items/:item_id/finish", orderCtrl.FinishCookingItem)
	auth.POST("/orders/:order_id/items/:item_id/cancel", orderCtrl.CancelItem)
	auth.GET("/kitchen/display", orderCtrl.GetKitchenDisplay)

	// BILLING (cashier/staff/admin)
	auth.POST("/orders/:order_id/bill", billingCtrl.GenerateBill)
	auth.GET("/bills", billingCtrl.GetAllBills)
	auth.GET("/bills/:bill_id", billingCtrl.GetBillByID)
	auth.POST("/bills/:bill_id/discount", billingCtrl.ApplyDiscount)
	auth.POST("/bills/:bill_id/payments", billingCtrl.RecordPayment)
	auth.POST("/bills/:bill_id/split", billingCtrl.SplitBill)

	// WebSocket endpoint with token passed as a query parameter
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/events", controllers.EventsHandler)
	}

	return r
}
