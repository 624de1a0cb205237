package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"equipment_lending_tool/app"
	"equipment_lending_tool/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RepairController struct{ *Srv }

func NewRepairController(s *Srv) *RepairController { return &RepairController{Srv: s} }

// POST /api/repairs（仅管理员）
func (rc *RepairController) CreateRepair(c *gin.Context) {
	var in struct {
		UnitID      string  `json:"unitId" binding:"required"`
		Description string  `json:"description" binding:"required"`
		Cost        float64 `json:"cost"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	rep, err := rc.Repo.OpenRepair(c.Request.Context(), in.UnitID, in.Description, in.Cost)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrUnitNotAvailable):
			c.JSON(http.StatusConflict, app.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "unit not found"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, rep)
}

// POST /api/repairs/:id/complete（仅管理员）
func (rc *RepairController) CompleteRepair(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid id"})
		return
	}
	var in struct {
		Cost float64 `json:"cost"`
	}
	_ = c.ShouldBindJSON(&in)

	rep, err := rc.Repo.CompleteRepair(c.Request.Context(), uint(id), in.Cost)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrAlreadyClosed):
			c.JSON(http.StatusConflict, app.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "repair not found"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GET /api/repairs?unitId=&status=
func (rc *RepairController) ListRepairs(c *gin.Context) {
	reps, err := rc.Repo.ListRepairs(c.Request.Context(), c.Query("unitId"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"repairs": reps})
}

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

// POST /api/reports
// 对 available 或 loaned 的件都可以上报；不会结束进行中的借用
func (rc *ReportController) CreateReport(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	var in struct {
		UnitID      string `json:"unitId" binding:"required"`
		Type        string `json:"type" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	rep, err := rc.Repo.OpenReport(c.Request.Context(), uid, in.UnitID, in.Type, in.Description)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrUnitNotReportable):
			c.JSON(http.StatusConflict, app.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "unit not found"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, rep)
}

// POST /api/reports/:id/resolve（仅管理员）
func (rc *ReportController) ResolveReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid id"})
		return
	}
	rep, err := rc.Repo.ResolveReport(c.Request.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, db.ErrAlreadyClosed):
			c.JSON(http.StatusConflict, app.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "report not found"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GET /api/reports?unitId=&status=
// 普通用户只看自己的上报；管理员看全部
func (rc *ReportController) ListReports(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	userFilter := uid
	if v, ok := c.Get("isAdmin"); ok {
		if isAdmin, _ := v.(bool); isAdmin {
			userFilter = c.Query("userId")
		}
	}
	reps, err := rc.Repo.ListReports(c.Request.Context(), userFilter, c.Query("unitId"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"reports": reps})
}
