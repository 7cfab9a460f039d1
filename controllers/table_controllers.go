package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dinehub/restaurant-pos/events"
	"github.com/dinehub/restaurant-pos/models"
	"github.com/dinehub/restaurant-pos/services"
	"github.com/dinehub/restaurant-pos/utils"
)

type TableController struct {
	DB     *gorm.DB
	Tables *services.TableService
}

func NewTableController(db *gorm.DB, tables *services.TableService) *TableController {
	return &TableController{DB: db, Tables: tables}
}

// CreateTable
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
		Capacity    int    `json:"capacity"`
		Location    string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Status:      models.TableStatusAvailable,
		Location:    req.Location,
	}
	if table.Capacity <= 0 {
		table.Capacity = 2
	}
	if userID, ok := c.Get("user_id"); ok {
		table.CreatedBy, _ = userID.(uint)
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %s (capacity=%d)", table.TableNumber, table.Capacity)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables
func (tc *TableController) GetAllTables(c *gin.Context) {
	q := tc.DB
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	var tables []models.Table
	if err := q.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID
func (tc *TableController) GetTableByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	var table models.Table
	if err := tc.DB.First(&table, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// ReserveTable -> RESERVED, independent of any order
func (tc *TableController) ReserveTable(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	var body struct {
		At time.Time `json:"at"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.At.IsZero() {
		body.At = time.Now()
	}

	table, err := tc.Tables.Reserve(uint(id), body.At)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.TableUpdated(*table)
	utils.RespondJSON(c, http.StatusOK, "Table reserved", table)
}

// ReleaseTable -> staff clears a reservation or resets a table
func (tc *TableController) ReleaseTable(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	table, err := tc.Tables.ReleaseManual(uint(id))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.TableUpdated(*table)
	utils.RespondJSON(c, http.StatusOK, "Table released", table)
}

// SetTableOutOfService
func (tc *TableController) SetTableOutOfService(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	table, err := tc.Tables.SetOutOfService(uint(id))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	events.TableUpdated(*table)
	utils.RespondJSON(c, http.StatusOK, "Table out of service", table)
}

// DeleteTable
func (tc *TableController) DeleteTable(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	var table models.Table
	if err := tc.DB.First(&table, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.Status == models.TableStatusOccupied {
		utils.RespondError(c, http.StatusConflict, ErrTableBusy)
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d deleted", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}
