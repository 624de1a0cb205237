package models

import "time"

const NotificationTable = "notifiche"

// Notification matches what the notification panel consumes:
// {id, type, title, description, time, isRead}
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;index;not null" json:"-"`
	Type        string    `gorm:"size:50;not null" json:"type"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"size:500" json:"description"`
	IsRead      bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt   time.Time `json:"time"`
}

func (Notification) TableName() string { return NotificationTable }
