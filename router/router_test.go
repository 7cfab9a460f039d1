package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dinehub/restaurant-pos/billing"
	"github.com/dinehub/restaurant-pos/models"
	"github.com/dinehub/restaurant-pos/utils"
)

func setupRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:routertest?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

// The per-IP limiter allows 50 requests per second; the burst past it
// must come back 429.
func TestPerIPRateLimiterGuardsRoutes(t *testing.T) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	db := setupRouterTestDB(t)
	calc := billing.New(decimal.RequireFromString("0.10"), decimal.RequireFromString("0.05"))
	r := SetupRouter(db, calc)

	limited := false
	for i := 0; i < 60; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.True(t, limited, "limiter never rejected the burst")
}
