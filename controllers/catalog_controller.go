// controllers/catalog_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"equipment_lending_tool/app"
	"equipment_lending_tool/db"
	"equipment_lending_tool/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogController struct{ *Srv }

func NewCatalogController(s *Srv) *CatalogController { return &CatalogController{Srv: s} }

// Categories

func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var in struct {
		Name   string `json:"name" binding:"required"`
		Parent string `json:"parent"`
		Child  string `json:"child"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	cat := &models.Category{Name: in.Name, Parent: in.Parent, Child: in.Child}
	if err := cc.Repo.CreateCategory(c.Request.Context(), cat); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (cc *CatalogController) ListCategories(c *gin.Context) {
	cats, err := cc.Repo.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": cats})
}

func (cc *CatalogController) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid id"})
		return
	}
	var in struct {
		Name   *string `json:"name"`
		Parent *string `json:"parent"`
		Child  *string `json:"child"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Parent != nil {
		fields["parent"] = *in.Parent
	}
	if in.Child != nil {
		fields["child"] = *in.Child
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "nothing to update"})
		return
	}
	if err := cc.Repo.UpdateCategory(c.Request.Context(), uint(id), fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (cc *CatalogController) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid id"})
		return
	}
	if err := cc.Repo.DeleteCategory(c.Request.Context(), uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// Items

// 管理员创建物品类型，数量从 0 开始
func (cc *CatalogController) CreateItem(c *gin.Context) {
	var in struct {
		Name       string `json:"name" binding:"required"`
		CategoryID *uint  `json:"categoryId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	it := &models.InventoryItem{ID: uuid.NewString(), Name: in.Name, CategoryID: in.CategoryID}
	if err := cc.Repo.CreateItem(c.Request.Context(), it); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (cc *CatalogController) ListItems(c *gin.Context) {
	items, err := cc.Repo.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

func (cc *CatalogController) GetItem(c *gin.Context) {
	it, err := cc.Repo.FindItemByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, it)
}

// Units

// 管理员给物品登记一件实物（唯一编号）
func (cc *CatalogController) AddUnit(c *gin.Context) {
	itemID := c.Param("id")
	var in struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	unit, err := cc.Repo.AddUnit(c.Request.Context(), itemID, in.Code)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicateCode):
			c.JSON(http.StatusConflict, app.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, unit)
}

func (cc *CatalogController) ListUnits(c *gin.Context) {
	units, err := cc.Repo.ListUnits(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"units": units})
}

// 管理端总览：每件 + 当前借用人 + 是否逾期
func (cc *CatalogController) ListUnitsAdmin(c *gin.Context) {
	q := db.AdminUnitsQuery{
		Q:      c.Query("q"),
		Status: c.Query("status"),
	}
	if v := c.DefaultQuery("page", "1"); v != "" {
		q.Page, _ = strconv.Atoi(v)
	}
	if v := c.DefaultQuery("size", "20"); v != "" {
		q.Size, _ = strconv.Atoi(v)
	}

	res, err := cc.Repo.ListUnitsWithCurrentLoan(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "units": res})
}

// GET /api/courses（报名页下拉框用）
func (cc *CatalogController) ListCourses(c *gin.Context) {
	cs, err := cc.Repo.ListCourses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"courses": cs})
}
