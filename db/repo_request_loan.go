package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equipment_lending_tool/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRequestNotPending = errors.New("request is not pending")
	ErrInsufficientUnits = errors.New("not enough available units")
	ErrLoanNotActive     = errors.New("loan is not active")
)

// Requests

func (r *Repo) CreateRequest(ctx context.Context, req *models.Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.RequestPending
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *Repo) FindRequestByID(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	if err := r.DB.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repo) ListRequests(ctx context.Context, userID, status string) ([]models.Request, error) {
	q := r.DB.WithContext(ctx).Model(&models.Request{}).Order("created_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reqs []models.Request
	if err := q.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// ApproveRequest allocates N available units in one transaction: either all N
// flip to loaned and N loans are created, or nothing changes. The guarded
// UPDATE with a RowsAffected check is what keeps two concurrent approvals
// from grabbing the same unit.
func (r *Repo) ApproveRequest(ctx context.Context, requestID string) (*models.Request, []models.Loan, error) {
	var req models.Request
	var loans []models.Loan
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return ErrRequestNotPending
		}

		var unitIDs []string
		if err := tx.Model(&models.Unit{}).
			Where("item_id = ? AND status = ?", req.ItemID, models.UnitAvailable).
			Order("code").
			Limit(req.Quantity).
			Pluck("id", &unitIDs).Error; err != nil {
			return err
		}
		if len(unitIDs) < req.Quantity {
			return ErrInsufficientUnits
		}

		res := tx.Model(&models.Unit{}).
			Where("id IN ? AND status = ?", unitIDs, models.UnitAvailable).
			Update("status", models.UnitLoaned)
		if res.Error != nil {
			return res.Error
		}
		if int(res.RowsAffected) != req.Quantity {
			// 有并发抢占，整体回滚
			return ErrInsufficientUnits
		}

		loans = loans[:0]
		for _, unitID := range unitIDs {
			loans = append(loans, models.Loan{
				ID:        uuid.NewString(),
				RequestID: req.ID,
				UnitID:    unitID,
				StartDate: req.StartDate,
				EndDate:   req.EndDate,
				Status:    models.LoanActive,
			})
		}
		if err := tx.Create(&loans).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Request{}).
			Where("id = ?", req.ID).
			Update("status", models.RequestApproved).Error; err != nil {
			return err
		}
		req.Status = models.RequestApproved

		if err := notify(tx, req.UserID, "request", "Request approved",
			fmt.Sprintf("Your request for %d unit(s) was approved.", req.Quantity)); err != nil {
			return err
		}
		return recomputeAvailable(tx, req.ItemID)
	})
	if err != nil {
		return nil, nil, err
	}
	return &req, loans, nil
}

func (r *Repo) RejectRequest(ctx context.Context, requestID string) (*models.Request, error) {
	var req models.Request
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Request{}).
			Where("id = ? AND status = ?", requestID, models.RequestPending).
			Update("status", models.RequestRejected)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRequestNotPending
		}
		req.Status = models.RequestRejected
		return notify(tx, req.UserID, "request", "Request rejected",
			"Your loan request was rejected.")
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Loans

// ReturnLoan closes an active loan. The unit goes back to available unless an
// open repair or report holds it; when the last loan of the request comes
// back, the request flips to completed.
func (r *Repo) ReturnLoan(ctx context.Context, loanID, returnedBy string) (*models.Loan, error) {
	var l models.Loan
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&l, "id = ?", loanID).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		res := tx.Model(&models.Loan{}).
			Where("id = ? AND status = ?", loanID, models.LoanActive).
			Updates(map[string]interface{}{
				"status":      models.LoanReturned,
				"returned_at": &now,
				"returned_by": &returnedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLoanNotActive
		}
		l.Status = models.LoanReturned
		l.ReturnedAt = &now
		l.ReturnedBy = &returnedBy

		next, err := unitRestingStatus(tx, l.UnitID, false)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Unit{}).
			Where("id = ?", l.UnitID).
			Update("status", next).Error; err != nil {
			return err
		}

		var unit models.Unit
		if err := tx.First(&unit, "id = ?", l.UnitID).Error; err != nil {
			return err
		}
		if err := recomputeAvailable(tx, unit.ItemID); err != nil {
			return err
		}

		// 全部归还 → 申请完成
		var open int64
		if err := tx.Model(&models.Loan{}).
			Where("request_id = ? AND status = ?", l.RequestID, models.LoanActive).
			Count(&open).Error; err != nil {
			return err
		}
		if open == 0 {
			if err := tx.Model(&models.Request{}).
				Where("id = ? AND status = ?", l.RequestID, models.RequestApproved).
				Update("status", models.RequestCompleted).Error; err != nil {
				return err
			}
			var req models.Request
			if err := tx.First(&req, "id = ?", l.RequestID).Error; err == nil {
				_ = notify(tx, req.UserID, "loan", "Loans returned",
					"All units of your request have been returned.")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) FindLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	var l models.Loan
	if err := r.DB.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLoans with a non-empty userID only returns loans whose request belongs
// to that user (loans carry no user column, ownership lives on the request).
func (r *Repo) ListLoans(ctx context.Context, userID, requestID, unitID, status string) ([]models.Loan, error) {
	q := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Order(models.LoanTable + ".start_date DESC")
	if userID != "" {
		q = q.Select(models.LoanTable+".*").
			Joins(fmt.Sprintf("JOIN %s req ON req.id = %s.request_id",
				models.RequestTable, models.LoanTable)).
			Where("req.user_id = ?", userID)
	}
	if requestID != "" {
		q = q.Where(models.LoanTable+".request_id = ?", requestID)
	}
	if unitID != "" {
		q = q.Where(models.LoanTable+".unit_id = ?", unitID)
	}
	if status != "" {
		q = q.Where(models.LoanTable+".status = ?", status)
	}
	var ls []models.Loan
	if err := q.Find(&ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}

// unitRestingStatus decides where a unit lands when nothing is borrowing it:
// an open repair wins over an open report, which wins over available. With
// countLoans, an open loan wins over everything (used when resolving reports
// against units that are still out).
func unitRestingStatus(tx *gorm.DB, unitID string, countLoans bool) (string, error) {
	if countLoans {
		var open int64
		if err := tx.Model(&models.Loan{}).
			Where("unit_id = ? AND status = ?", unitID, models.LoanActive).
			Count(&open).Error; err != nil {
			return "", err
		}
		if open > 0 {
			return models.UnitLoaned, nil
		}
	}
	var repairs int64
	if err := tx.Model(&models.Repair{}).
		Where("unit_id = ? AND status = ?", unitID, models.RepairOpen).
		Count(&repairs).Error; err != nil {
		return "", err
	}
	if repairs > 0 {
		return models.UnitInRepair, nil
	}
	var reports int64
	if err := tx.Model(&models.Report{}).
		Where("unit_id = ? AND status = ?", unitID, models.ReportOpen).
		Count(&reports).Error; err != nil {
		return "", err
	}
	if reports > 0 {
		return models.UnitReported, nil
	}
	return models.UnitAvailable, nil
}
