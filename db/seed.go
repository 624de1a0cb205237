// db/seed.go
package db

import (
	"context"
	"errors"
	"strings"

	"equipment_lending_tool/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedConfig carries the bootstrap records. Values come from the environment
// (see app.loadConfig), not from literals in here.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	Courses       []string
}

// Seed is idempotent: the admin account and each course are created only if
// missing, so running it on every boot is safe.
func Seed(ctx context.Context, db *gorm.DB, cfg SeedConfig, logger *zap.Logger) error {
	if cfg.AdminEmail != "" {
		email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
		var n int64
		if err := db.WithContext(ctx).Model(&models.User{}).
			Where("email = ?", email).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			admin := &models.User{
				ID:           uuid.NewString(),
				Email:        email,
				PasswordHash: string(hash),
				Role:         models.RoleAdmin,
			}
			if err := db.WithContext(ctx).Create(admin).Error; err != nil {
				return err
			}
			logger.Info("seeded admin account", zap.String("email", email))
		}
	}

	for _, name := range cfg.Courses {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		err := db.WithContext(ctx).Create(&models.Course{Name: name}).Error
		if err != nil {
			// 已存在 → 跳过
			if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
				continue
			}
			return err
		}
		logger.Info("seeded course", zap.String("name", name))
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
