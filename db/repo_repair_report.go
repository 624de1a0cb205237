// db/repo_repair_report.go
package db

import (
	"context"
	"errors"

	"equipment_lending_tool/models"

	"gorm.io/gorm"
)

var (
	ErrUnitNotAvailable  = errors.New("unit is not available")
	ErrUnitNotReportable = errors.New("unit cannot be reported")
	ErrAlreadyClosed     = errors.New("record already closed")
)

// Repairs

// OpenRepair takes an available unit out of circulation. The guarded update
// fails if the unit is loaned, reported or already in repair.
func (r *Repo) OpenRepair(ctx context.Context, unitID, description string, cost float64) (*models.Repair, error) {
	var rep *models.Repair
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unit models.Unit
		if err := tx.First(&unit, "id = ?", unitID).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Unit{}).
			Where("id = ? AND status = ?", unitID, models.UnitAvailable).
			Update("status", models.UnitInRepair)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUnitNotAvailable
		}
		rep = &models.Repair{
			UnitID:      unitID,
			Description: description,
			Status:      models.RepairOpen,
			Cost:        cost,
		}
		if err := tx.Create(rep).Error; err != nil {
			return err
		}
		return recomputeAvailable(tx, unit.ItemID)
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *Repo) CompleteRepair(ctx context.Context, repairID uint, cost float64) (*models.Repair, error) {
	var rep models.Repair
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rep, "id = ?", repairID).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Repair{}).
			Where("id = ? AND status = ?", repairID, models.RepairOpen).
			Updates(map[string]interface{}{"status": models.RepairCompleted, "cost": cost})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyClosed
		}
		rep.Status = models.RepairCompleted
		rep.Cost = cost

		next, err := unitRestingStatus(tx, rep.UnitID, true)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Unit{}).
			Where("id = ?", rep.UnitID).
			Update("status", next).Error; err != nil {
			return err
		}
		var unit models.Unit
		if err := tx.First(&unit, "id = ?", rep.UnitID).Error; err != nil {
			return err
		}
		return recomputeAvailable(tx, unit.ItemID)
	})
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *Repo) ListRepairs(ctx context.Context, unitID, status string) ([]models.Repair, error) {
	q := r.DB.WithContext(ctx).Model(&models.Repair{}).Order("created_at DESC")
	if unitID != "" {
		q = q.Where("unit_id = ?", unitID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reps []models.Repair
	err := q.Find(&reps).Error
	return reps, err
}

// Reports (segnalazioni)

// OpenReport flags a fault against an available or loaned unit. An active
// loan is not touched: the unit shows reported but can still be returned.
func (r *Repo) OpenReport(ctx context.Context, userID, unitID, reportType, description string) (*models.Report, error) {
	var rep *models.Report
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unit models.Unit
		if err := tx.First(&unit, "id = ?", unitID).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Unit{}).
			Where("id = ? AND status IN ?", unitID, []string{models.UnitAvailable, models.UnitLoaned}).
			Update("status", models.UnitReported)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUnitNotReportable
		}
		rep = &models.Report{
			UserID:      userID,
			UnitID:      unitID,
			Type:        reportType,
			Description: description,
			Status:      models.ReportOpen,
		}
		if err := tx.Create(rep).Error; err != nil {
			return err
		}
		return recomputeAvailable(tx, unit.ItemID)
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *Repo) ResolveReport(ctx context.Context, reportID uint) (*models.Report, error) {
	var rep models.Report
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rep, "id = ?", reportID).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Report{}).
			Where("id = ? AND status = ?", reportID, models.ReportOpen).
			Update("status", models.ReportResolved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyClosed
		}
		rep.Status = models.ReportResolved

		// 恢复到自然状态：有未还借用 → loaned；有维修 → in-repair；否则 available
		next, err := unitRestingStatus(tx, rep.UnitID, true)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Unit{}).
			Where("id = ?", rep.UnitID).
			Update("status", next).Error; err != nil {
			return err
		}
		var unit models.Unit
		if err := tx.First(&unit, "id = ?", rep.UnitID).Error; err != nil {
			return err
		}
		return recomputeAvailable(tx, unit.ItemID)
	})
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *Repo) ListReports(ctx context.Context, userID, unitID, status string) ([]models.Report, error) {
	q := r.DB.WithContext(ctx).Model(&models.Report{}).Order("created_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if unitID != "" {
		q = q.Where("unit_id = ?", unitID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reps []models.Report
	err := q.Find(&reps).Error
	return reps, err
}
