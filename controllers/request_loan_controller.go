// controllers/request_loan_controller.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"equipment_lending_tool/app"
	"equipment_lending_tool/db"
	"equipment_lending_tool/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RequestController struct{ *Srv }

func NewRequestController(s *Srv) *RequestController { return &RequestController{Srv: s} }

// POST /api/requests
func (rc *RequestController) CreateRequest(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}

	var in struct {
		ItemID    string    `json:"itemId" binding:"required"`
		Quantity  int       `json:"quantity" binding:"required,min=1"`
		StartDate time.Time `json:"startDate" binding:"required"`
		EndDate   time.Time `json:"endDate" binding:"required"`
		Note      string    `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if !in.StartDate.Before(in.EndDate) {
		c.JSON(http.StatusBadRequest, app.H{"error": "startDate must be before endDate"})
		return
	}
	if _, err := rc.Repo.FindItemByID(c.Request.Context(), in.ItemID); err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
		return
	}

	req := &models.Request{
		UserID:    uid,
		ItemID:    in.ItemID,
		Quantity:  in.Quantity,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Note:      in.Note,
	}
	if err := rc.Repo.CreateRequest(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GET /api/requests?status=
// 普通用户只看自己的；管理员看全部
func (rc *RequestController) ListRequests(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	userFilter := uid
	if callerIsAdmin(c) {
		userFilter = c.Query("userId")
	}
	reqs, err := rc.Repo.ListRequests(c.Request.Context(), userFilter, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"requests": reqs})
}

// POST /api/requests/:id/approve（仅管理员）
// 要么 N 件全部借出，要么库存不足、原样不动
func (rc *RequestController) Approve(c *gin.Context) {
	req, loans, err := rc.Repo.ApproveRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, db.ErrInsufficientUnits):
			c.JSON(http.StatusConflict, app.H{"error": "not enough available units"})
		case errors.Is(err, db.ErrRequestNotPending):
			c.JSON(http.StatusConflict, app.H{"error": "request is not pending"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "request not found"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, app.H{"request": req, "loans": loans})
}

// POST /api/requests/:id/reject（仅管理员）
func (rc *RequestController) Reject(c *gin.Context) {
	req, err := rc.Repo.RejectRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, db.ErrRequestNotPending):
			c.JSON(http.StatusConflict, app.H{"error": "request is not pending"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "request not found"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, app.H{"request": req})
}

// POST /api/loans/:id/return
// 第二次归还会失败（loan 已不是 active）
// 普通用户只能归还自己申请下的 loan
func (rc *RequestController) Return(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	if !callerIsAdmin(c) {
		rec, err := rc.Repo.FindLoanByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, app.H{"error": "loan not found"})
			return
		}
		req, err := rc.Repo.FindRequestByID(c.Request.Context(), rec.RequestID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
			return
		}
		if req.UserID != uid {
			c.JSON(http.StatusForbidden, app.H{"error": "not your loan"})
			return
		}
	}
	loan, err := rc.Repo.ReturnLoan(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrLoanNotActive):
			c.JSON(http.StatusConflict, app.H{"error": "loan is not active"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "loan not found"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, loan)
}

// GET /api/loans?requestId=&unitId=&status=
// 普通用户只看自己申请下的 loan；管理员可用 ?userId= 过滤
func (rc *RequestController) ListLoans(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	userFilter := uid
	if callerIsAdmin(c) {
		userFilter = c.Query("userId")
	}
	ls, err := rc.Repo.ListLoans(c.Request.Context(), userFilter,
		c.Query("requestId"), c.Query("unitId"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"loans": ls})
}
