package db

import (
	"context"
	"errors"
	"time"

	"equipment_lending_tool/models"
)

var (
	ErrTokenUsed    = errors.New("reset token already used")
	ErrTokenExpired = errors.New("reset token expired")
)

func (r *Repo) CreatePasswordReset(ctx context.Context, email, token string, expiresAt time.Time) (*models.PasswordResetRequest, error) {
	prr := &models.PasswordResetRequest{
		Email:     email,
		Token:     token,
		Status:    models.ResetPending,
		ExpiresAt: expiresAt,
	}
	return prr, r.DB.WithContext(ctx).Create(prr).Error
}

// RedeemPasswordReset consumes a token exactly once. The pending→used flip is
// a guarded update, so two concurrent confirms cannot both succeed.
func (r *Repo) RedeemPasswordReset(ctx context.Context, token string) (*models.PasswordResetRequest, error) {
	var prr models.PasswordResetRequest
	tx := r.DB.WithContext(ctx)
	if err := tx.Where("token = ?", token).First(&prr).Error; err != nil {
		return nil, err
	}
	switch prr.Status {
	case models.ResetUsed:
		return nil, ErrTokenUsed
	case models.ResetExpired:
		return nil, ErrTokenExpired
	}
	now := time.Now().UTC()
	if !prr.ExpiresAt.After(now) {
		// 过期的标记为 expired，之后一律拒绝
		_ = tx.Model(&models.PasswordResetRequest{}).
			Where("id = ? AND status = ?", prr.ID, models.ResetPending).
			Update("status", models.ResetExpired).Error
		return nil, ErrTokenExpired
	}
	res := tx.Model(&models.PasswordResetRequest{}).
		Where("id = ? AND status = ? AND expires_at > ?", prr.ID, models.ResetPending, now).
		Updates(map[string]interface{}{"status": models.ResetUsed, "used_at": &now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTokenUsed
	}
	prr.Status = models.ResetUsed
	prr.UsedAt = &now
	return &prr, nil
}
