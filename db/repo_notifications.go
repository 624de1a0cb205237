package db

import (
	"context"

	"equipment_lending_tool/models"

	"gorm.io/gorm"
)

// notify writes an in-app notification inside the caller's transaction.
func notify(tx *gorm.DB, userID, ntype, title, description string) error {
	return tx.Create(&models.Notification{
		UserID:      userID,
		Type:        ntype,
		Title:       title,
		Description: description,
	}).Error
}

func (r *Repo) CreateNotification(ctx context.Context, userID, ntype, title, description string) error {
	return notify(r.DB.WithContext(ctx), userID, ntype, title, description)
}

func (r *Repo) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var ns []models.Notification
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ns).Error
	return ns, err
}

// MarkNotificationRead only touches the caller's own rows.
func (r *Repo) MarkNotificationRead(ctx context.Context, userID string, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) DeleteNotification(ctx context.Context, userID string, id uint) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
