// models/request_loan.go
package models

import "time"

const RequestTable = "richieste"
const LoanTable = "prestiti"

const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestCompleted = "completed"
)

const (
	LoanActive   = "active"
	LoanReturned = "returned"
)

// Request 用户提出的借用申请：某物品借 N 件
type Request struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"userId"`
	ItemID    string    `gorm:"type:uuid;index;not null" json:"itemId"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`
	Status    string    `gorm:"size:20;index;not null;default:'pending'" json:"status"` // pending/approved/rejected/completed
	Note      string    `gorm:"size:255" json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Loan 批准后对具体某一件的占用
type Loan struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID string    `gorm:"type:uuid;index;not null" json:"requestId"`
	UnitID    string    `gorm:"type:uuid;index;not null" json:"unitId"`
	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`

	Status     string     `gorm:"size:20;index;not null;default:'active'" json:"status"` // active/returned
	ReturnedAt *time.Time `gorm:"index" json:"returnedAt,omitempty"`
	ReturnedBy *string    `gorm:"type:uuid" json:"returnedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Request) TableName() string { return RequestTable }
func (Loan) TableName() string    { return LoanTable }
