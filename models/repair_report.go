package models

import "time"

const RepairTable = "riparazioni"
const ReportTable = "segnalazioni"

const (
	RepairOpen      = "open"
	RepairCompleted = "completed"
)

const (
	ReportOpen     = "open"
	ReportResolved = "resolved"
)

type Repair struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UnitID      string    `gorm:"type:uuid;index;not null" json:"unitId"`
	Description string    `gorm:"size:500" json:"description"`
	Status      string    `gorm:"size:20;index;not null;default:'open'" json:"status"` // open/completed
	Cost        float64   `gorm:"not null;default:0" json:"cost"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Report (segnalazione) 用户对某件设备的故障上报，不会强制结束借用
type Report struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;index;not null" json:"userId"`
	UnitID      string    `gorm:"type:uuid;index;not null" json:"unitId"`
	Type        string    `gorm:"size:50;not null" json:"type"`
	Description string    `gorm:"size:500" json:"description"`
	Status      string    `gorm:"size:20;index;not null;default:'open'" json:"status"` // open/resolved
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Repair) TableName() string { return RepairTable }
func (Report) TableName() string { return ReportTable }
