package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dinehub/restaurant-pos/billing"
	"github.com/dinehub/restaurant-pos/models"
	"github.com/dinehub/restaurant-pos/router"
	"github.com/dinehub/restaurant-pos/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	utils.InitJWT("integration-test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndIntegration walks the full floor flow:
// 1. Login -> token
// 2. Create a dine-in order (2x 12.99) -> table occupied, totals derived
// 3. Advance through the kitchen to SERVED -> table freed
// 4. Generate the bill -> final 29.88
// 5. Pay cash -> bill settles
func TestEndToEndIntegration(t *testing.T) {
	db := setupIntegrationDB()
	calc := billing.New(decimal.RequireFromString("0.10"), decimal.RequireFromString("0.05"))
	r := router.SetupRouter(db, calc)

	token := loginTest(t, r)
	orderID := createOrderTest(t, r, token)
	serveOrderTest(t, r, orderID, token, db)
	billID := generateBillTest(t, r, orderID, token)
	payBillTest(t, r, billID, token)
}

func setupIntegrationDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open in-memory sqlite: %v", err)
	}

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
	if err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	db.Create(&models.User{
		Name:     "Test Admin",
		Email:    "admin@example.com",
		Password: string(hashedPassword),
		Role:     "admin",
	})

	category := models.Category{Name: "Mains"}
	db.Create(&category)
	db.Create(&models.MenuItem{
		CategoryID:  category.ID,
		Name:        "Beef Burger",
		BasePrice:   decimal.RequireFromString("12.99"),
		IsAvailable: true,
		IsActive:    true,
	})

	db.Create(&models.Table{
		TableNumber: "A1",
		Capacity:    4,
		Status:      models.TableStatusAvailable,
	})

	return db
}

func loginTest(t *testing.T, r *gin.Engine) string {
	body := map[string]string{
		"email":    "admin@example.com",
		"password": "secret123",
	}
	bodyBytes, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("loginTest: code=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Status || resp.Data.Token == "" {
		t.Fatalf("loginTest: token missing, body=%s", w.Body.String())
	}
	return resp.Data.Token
}

func createOrderTest(t *testing.T, r *gin.Engine, token string) uint {
	bodyData := map[string]interface{}{
		"order_type": "DINE_IN",
		"table_id":   1,
		"items": []map[string]interface{}{
			{"menu_item_id": 1, "quantity": 2},
		},
	}
	bodyBytes, _ := json.Marshal(bodyData)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("createOrderTest: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			ID          uint   `json:"id"`
			Status      string `json:"status"`
			TotalAmount string `json:"total_amount"`
			FinalAmount string `json:"final_amount"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Status != models.OrderStatusPending {
		t.Fatalf("createOrderTest: expected PENDING, got %s", resp.Data.Status)
	}
	if resp.Data.TotalAmount != "25.98" {
		t.Fatalf("createOrderTest: expected subtotal 25.98, got %s", resp.Data.TotalAmount)
	}
	if resp.Data.FinalAmount != "29.88" {
		t.Fatalf("createOrderTest: expected final 29.88, got %s", resp.Data.FinalAmount)
	}
	return resp.Data.ID
}

// serveOrderTest advances PENDING -> IN_PREPARATION -> READY -> SERVED
// and checks the table is freed at the end.
func serveOrderTest(t *testing.T, r *gin.Engine, orderID uint, token string, db *gorm.DB) {
	var table models.Table
	db.First(&table, 1)
	if table.Status != models.TableStatusOccupied {
		t.Fatalf("serveOrderTest: expected table OCCUPIED before serving, got %s", table.Status)
	}

	for _, want := range []string{
		models.OrderStatusInPreparation,
		models.OrderStatusReady,
		models.OrderStatusServed,
	} {
		url := fmt.Sprintf("/api/orders/%d/advance", orderID)
		req := httptest.NewRequest(http.MethodPost, url, nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("serveOrderTest: advance to %s got %d, body=%s", want, w.Code, w.Body.String())
		}

		var resp struct {
			Data struct {
				Status string `json:"status"`
			} `json:"data"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Data.Status != want {
			t.Fatalf("serveOrderTest: expected %s, got %s", want, resp.Data.Status)
		}
	}

	db.First(&table, 1)
	if table.Status != models.TableStatusAvailable {
		t.Fatalf("serveOrderTest: expected table AVAILABLE after serving, got %s", table.Status)
	}
}

func generateBillTest(t *testing.T, r *gin.Engine, orderID uint, token string) uint {
	url := fmt.Sprintf("/api/orders/%d/bill", orderID)
	req := httptest.NewRequest(http.MethodPost, url, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("generateBillTest: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			ID          uint   `json:"id"`
			FinalAmount string `json:"final_amount"`
			IsPaid      bool   `json:"is_paid"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.FinalAmount != "29.88" {
		t.Fatalf("generateBillTest: expected final 29.88, got %s", resp.Data.FinalAmount)
	}
	if resp.Data.IsPaid {
		t.Fatalf("generateBillTest: new bill must not be paid")
	}
	return resp.Data.ID
}

func payBillTest(t *testing.T, r *gin.Engine, billID uint, token string) {
	bodyData := map[string]interface{}{
		"amount": "29.88",
		"method": "CASH",
	}
	bodyBytes, _ := json.Marshal(bodyData)

	url := fmt.Sprintf("/api/bills/%d/payments", billID)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("payBillTest: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Bill struct {
				IsPaid bool `json:"is_paid"`
			} `json:"bill"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Data.Bill.IsPaid {
		t.Fatalf("payBillTest: expected bill settled, body=%s", w.Body.String())
	}
}
