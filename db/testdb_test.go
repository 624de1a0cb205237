package db

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"equipment_lending_tool/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test an isolated in-memory database with the full
// schema applied.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// keep the shared in-memory db alive for the whole test
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedUser(t *testing.T, repo *Repo, email, role string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "x",
		Role:         role,
	}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedItemWithUnits creates one item with n registered units.
func seedItemWithUnits(t *testing.T, repo *Repo, n int) (*models.InventoryItem, []models.Unit) {
	t.Helper()
	ctx := context.Background()
	it := &models.InventoryItem{ID: uuid.NewString(), Name: "Camera"}
	if err := repo.CreateItem(ctx, it); err != nil {
		t.Fatalf("create item: %v", err)
	}
	var units []models.Unit
	for i := 0; i < n; i++ {
		u, err := repo.AddUnit(ctx, it.ID, fmt.Sprintf("CAM-%03d", i+1))
		if err != nil {
			t.Fatalf("add unit: %v", err)
		}
		units = append(units, *u)
	}
	return it, units
}

func availableQty(t *testing.T, gdb *gorm.DB, itemID string) int {
	t.Helper()
	var it models.InventoryItem
	if err := gdb.First(&it, "id = ?", itemID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	return it.AvailableQty
}

// countAvailableUnits is the invariant side: available_qty must always equal
// this count.
func countAvailableUnits(t *testing.T, gdb *gorm.DB, itemID string) int {
	t.Helper()
	var n int64
	if err := gdb.Model(&models.Unit{}).
		Where("item_id = ? AND status = ?", itemID, models.UnitAvailable).
		Count(&n).Error; err != nil {
		t.Fatalf("count units: %v", err)
	}
	return int(n)
}

func checkQtyInvariant(t *testing.T, gdb *gorm.DB, itemID string) {
	t.Helper()
	stored := availableQty(t, gdb, itemID)
	counted := countAvailableUnits(t, gdb, itemID)
	if stored != counted {
		t.Fatalf("available_qty drifted: stored=%d counted=%d", stored, counted)
	}
}
