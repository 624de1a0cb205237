// models/catalog.go
package models

import "time"

const CategoryTable = "categorie"
const ItemTable = "inventario"
const UnitTable = "inventario_unita"

// Unit lifecycle
const (
	UnitAvailable = "available"
	UnitLoaned    = "loaned"
	UnitInRepair  = "in-repair"
	UnitReported  = "reported"
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Parent    string    `gorm:"size:120" json:"parent,omitempty"` // parent category label
	Child     string    `gorm:"size:120" json:"child,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type InventoryItem struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string `gorm:"size:200;not null" json:"name"`
	CategoryID *uint  `gorm:"index" json:"categoryId,omitempty"`

	// AvailableQty is recomputed from unit statuses inside every
	// mutating transaction, never incremented blindly.
	TotalQty     int `gorm:"not null;default:0" json:"totalQty"`
	AvailableQty int `gorm:"not null;default:0" json:"availableQty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Unit 库存中的单件（每件有唯一编号）
type Unit struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID    string    `gorm:"type:uuid;index;not null" json:"itemId"`
	Code      string    `gorm:"size:120;uniqueIndex;not null" json:"code"`
	Status    string    `gorm:"size:20;not null;default:'available'" json:"status"` // available/loaned/in-repair/reported
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Category) TableName() string      { return CategoryTable }
func (InventoryItem) TableName() string { return ItemTable }
func (Unit) TableName() string          { return UnitTable }
