//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/tokonext/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	all := models.AllModels()
	_ = db.Migrator().DropTable(all...)
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(all...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresConcurrentDecrementNeverGoesNegative(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)
	variant := createTestVariant(t, db, "PG-SKU-RACE", 50000, 5)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				txRepo := repo.WithTx(tx)
				if _, err := txRepo.LockVariantsByIDs([]uint{variant.ID}); err != nil {
					return err
				}
				affected, err := txRepo.DecrementStock(variant.ID, 2)
				if err != nil {
					return err
				}
				if affected == 1 {
					mu.Lock()
					applied++
					mu.Unlock()
				}
				return nil
			})
			if err != nil {
				t.Errorf("decrement transaction failed: %v", err)
			}
		}()
	}
	wg.Wait()

	reloaded, err := repo.GetVariantByID(variant.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if applied != 2 {
		t.Fatalf("only two decrements of 2 fit into stock 5, got %d", applied)
	}
	if reloaded.Stock != 1 {
		t.Fatalf("stock want 1 got %d", reloaded.Stock)
	}
}

func TestPostgresCartUpsertIncrements(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCartRepository(db)
	variant := createTestVariant(t, db, "PG-SKU-CART", 10000, 5)

	for i := 0; i < 3; i++ {
		if err := repo.AddQuantity(1, variant.ID, 1); err != nil {
			t.Fatalf("add cart item failed: %v", err)
		}
	}
	items, err := repo.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("unexpected cart lines: %+v", items)
	}
}
