// db/repo_catalog.go
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"equipment_lending_tool/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrDuplicateCode = errors.New("unit code already exists")

// Categories

func (r *Repo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *Repo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.DB.WithContext(ctx).Order("name").Find(&cats).Error
	return cats, err
}

func (r *Repo) UpdateCategory(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) DeleteCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Category{}, id).Error
}

// Items

func (r *Repo) CreateItem(ctx context.Context, it *models.InventoryItem) error {
	// 新物品从 0 开始，数量随件数增加
	it.TotalQty = 0
	it.AvailableQty = 0
	return r.DB.WithContext(ctx).Create(it).Error
}

func (r *Repo) FindItemByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	var it models.InventoryItem
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repo) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

// Units

// AddUnit registers one physical unit under an item and refreshes the item
// counters in the same transaction.
func (r *Repo) AddUnit(ctx context.Context, itemID, code string) (*models.Unit, error) {
	var unit *models.Unit
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.InventoryItem
		if err := tx.First(&it, "id = ?", itemID).Error; err != nil {
			return err
		}
		u := &models.Unit{
			ID:     uuid.NewString(),
			ItemID: it.ID,
			Code:   strings.TrimSpace(code),
			Status: models.UnitAvailable,
		}
		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
				return ErrDuplicateCode
			}
			return err
		}
		if err := tx.Model(&models.InventoryItem{}).
			Where("id = ?", it.ID).
			Update("total_qty", gorm.Expr("total_qty + 1")).Error; err != nil {
			return err
		}
		unit = u
		return recomputeAvailable(tx, it.ID)
	})
	return unit, err
}

func (r *Repo) FindUnitByID(ctx context.Context, id string) (*models.Unit, error) {
	var u models.Unit
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) ListUnits(ctx context.Context, itemID string) ([]models.Unit, error) {
	q := r.DB.WithContext(ctx).Order("code")
	if itemID != "" {
		q = q.Where("item_id = ?", itemID)
	}
	var units []models.Unit
	err := q.Find(&units).Error
	return units, err
}

// recomputeAvailable keeps available_qty == COUNT(units available). Called
// inside every transaction that flips a unit status.
func recomputeAvailable(tx *gorm.DB, itemID string) error {
	return tx.Model(&models.InventoryItem{}).
		Where("id = ?", itemID).
		Update("available_qty", gorm.Expr(
			fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE item_id = ? AND status = ?)", models.UnitTable),
			itemID, models.UnitAvailable)).Error
}

// Admin listing: units joined with their current open loan + borrower.

type AdminUnitRow struct {
	// Unit fields
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	ItemID    string    `json:"itemId"`
	ItemName  string    `json:"itemName"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Current open loan (nullable)
	LoanID         *string    `json:"loanId,omitempty"`
	BorrowerID     *string    `json:"borrowerId,omitempty"`
	BorrowerEmail  *string    `json:"borrowerEmail,omitempty"`
	LoanStartDate  *time.Time `json:"loanStartDate,omitempty"`
	LoanEndDate    *time.Time `json:"loanEndDate,omitempty"`
	Overdue        bool       `json:"overdue"` // 由 SQL 计算
}

type AdminUnitsQuery struct {
	Q      string // 模糊搜索：code/item name
	Status string // "", "available", "loaned", "in-repair", "reported", "overdue"
	Page   int
	Size   int
}

type PagedAdminUnits struct {
	Total int64          `json:"total"`
	Units []AdminUnitRow `json:"units"`
}

func (r *Repo) ListUnitsWithCurrentLoan(ctx context.Context, q AdminUnitsQuery) (*PagedAdminUnits, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 20
	}
	offset := (q.Page - 1) * q.Size

	db := r.DB.WithContext(ctx)

	// 子查询：每件“当前未归还”的最新一条 Loan
	sub := db.
		Table(models.LoanTable + " l").
		Select(`
			DISTINCT ON (l.unit_id)
			l.id, l.unit_id, l.request_id, l.start_date, l.end_date
		`).
		Where("l.returned_at IS NULL").
		Order("l.unit_id, l.start_date DESC")

	qry := db.
		Table(models.UnitTable+" u").
		Select(`
			u.id, u.code, u.item_id, u.status, u.created_at, u.updated_at,
			i.name       AS item_name,
			ol.id        AS loan_id,
			ol.start_date AS loan_start_date,
			ol.end_date   AS loan_end_date,
			req.user_id  AS borrower_id,
			bu.email     AS borrower_email,
			CASE WHEN ol.end_date IS NOT NULL AND ol.end_date < NOW() THEN TRUE ELSE FALSE END AS overdue
		`).
		Joins(fmt.Sprintf("JOIN %s i ON i.id = u.item_id", models.ItemTable)).
		Joins("LEFT JOIN (?) AS ol ON ol.unit_id = u.id", sub).
		Joins(fmt.Sprintf("LEFT JOIN %s req ON req.id = ol.request_id", models.RequestTable)).
		Joins(fmt.Sprintf("LEFT JOIN %s bu ON bu.id = req.user_id", models.UserTable))

	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		qry = qry.Where("LOWER(u.code) LIKE ? OR LOWER(i.name) LIKE ?", pat, pat)
	}
	switch q.Status {
	case "overdue":
		qry = qry.Where("ol.end_date IS NOT NULL AND ol.end_date < NOW()")
	case "":
		// no filter
	default:
		qry = qry.Where("u.status = ?", q.Status)
	}

	var total int64
	if err := qry.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []AdminUnitRow
	if err := qry.
		Order("u.code").
		Offset(offset).
		Limit(q.Size).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return &PagedAdminUnits{Total: total, Units: rows}, nil
}
