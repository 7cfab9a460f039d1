package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dinehub/restaurant-pos/models"
	"github.com/dinehub/restaurant-pos/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetAllMenuItems -> full catalog with variants
func (mc *MenuController) GetAllMenuItems(c *gin.Context) {
	var items []models.MenuItem
	q := mc.DB.Preload("Variants").Preload("Category")
	if cat := c.Query("category_id"); cat != "" {
		q = q.Where("category_id = ?", cat)
	}
	if err := q.Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

// CreateMenuItem
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var body struct {
		CategoryID  uint            `json:"category_id" binding:"required"`
		Name        string          `json:"name" binding:"required"`
		Description string          `json:"description"`
		BasePrice   decimal.Decimal `json:"base_price"`
		IsAvailable *bool           `json:"is_available"`
		ImageURL    string          `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.BasePrice.IsNegative() {
		utils.RespondError(c, http.StatusBadRequest, ErrNegativePrice)
		return
	}

	var category models.Category
	if err := mc.DB.First(&category, body.CategoryID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	item := models.MenuItem{
		CategoryID:  body.CategoryID,
		Name:        body.Name,
		Description: body.Description,
		BasePrice:   body.BasePrice,
		IsAvailable: true,
		IsActive:    true,
		ImageURL:    body.ImageURL,
	}
	if body.IsAvailable != nil {
		item.IsAvailable = *body.IsAvailable
	}

	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Menu item created: %s (price=%s)", item.Name, item.BasePrice)
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// GetMenuItemByID
func (mc *MenuController) GetMenuItemByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("menu_id"))

	var item models.MenuItem
	if err := mc.DB.Preload("Variants").First(&item, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item detail", item)
}

// UpdateMenuItem -> partial update; price changes never touch already
// snapshotted order lines
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("menu_id"))

	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var body struct {
		CategoryID  *uint            `json:"category_id"`
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		BasePrice   *decimal.Decimal `json:"base_price"`
		IsAvailable *bool            `json:"is_available"`
		IsActive    *bool            `json:"is_active"`
		ImageURL    *string          `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.CategoryID != nil {
		item.CategoryID = *body.CategoryID
	}
	if body.Name != nil {
		item.Name = *body.Name
	}
	if body.Description != nil {
		item.Description = *body.Description
	}
	if body.BasePrice != nil {
		if body.BasePrice.IsNegative() {
			utils.RespondError(c, http.StatusBadRequest, ErrNegativePrice)
			return
		}
		item.BasePrice = *body.BasePrice
	}
	if body.IsAvailable != nil {
		item.IsAvailable = *body.IsAvailable
	}
	if body.IsActive != nil {
		item.IsActive = *body.IsActive
	}
	if body.ImageURL != nil {
		item.ImageURL = *body.ImageURL
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// DeleteMenuItem -> soft delete by deactivating; order history keeps
// referencing the row
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("menu_id"))

	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	item.IsActive = false
	item.IsAvailable = false
	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deactivated", gin.H{"id": item.ID})
}

// CreateVariant
func (mc *MenuController) CreateVariant(c *gin.Context) {
	menuID, _ := strconv.Atoi(c.Param("menu_id"))

	var item models.MenuItem
	if err := mc.DB.First(&item, menuID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var body struct {
		Name     string          `json:"name" binding:"required"`
		PriceAdd decimal.Decimal `json:"price_add"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.PriceAdd.IsNegative() {
		utils.RespondError(c, http.StatusBadRequest, ErrNegativePrice)
		return
	}

	variant := models.MenuVariant{
		MenuItemID: item.ID,
		Name:       body.Name,
		PriceAdd:   body.PriceAdd,
		IsActive:   true,
	}
	if err := mc.DB.Create(&variant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Variant created", variant)
}
