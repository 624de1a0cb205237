package models

import "time"

const ResetTable = "password_reset_requests"

const (
	ResetPending = "pending"
	ResetUsed    = "used"
	ResetExpired = "expired"
)

type PasswordResetRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"index;size:255;not null" json:"email"`
	Token     string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Status    string    `gorm:"size:20;index;not null;default:'pending'" json:"status"` // pending/used/expired
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (PasswordResetRequest) TableName() string { return ResetTable }
