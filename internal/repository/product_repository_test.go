package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/tokonext/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createTestVariant(t *testing.T, db *gorm.DB, sku string, price int64, stock int) *models.ProductVariant {
	t.Helper()
	product := &models.Product{
		Name:     "Kaos " + sku,
		Slug:     "kaos-" + sku,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.ProductVariant{
		ProductID: product.ID,
		SKU:       sku,
		Name:      "M",
		Price:     models.NewMoney(price),
		Stock:     stock,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	variant.Product = product
	return variant
}

func TestDecrementStockIsConditional(t *testing.T) {
	db := setupRepositoryTestDB(t, "product_repo_decrement")
	repo := NewProductRepository(db)
	variant := createTestVariant(t, db, "SKU-DEC", 50000, 5)

	affected, err := repo.DecrementStock(variant.ID, 2)
	if err != nil {
		t.Fatalf("decrement stock failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("decrement affected want 1 got %d", affected)
	}

	affected, err = repo.DecrementStock(variant.ID, 4)
	if err != nil {
		t.Fatalf("decrement stock failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("insufficient stock should not be decremented, affected %d", affected)
	}

	reloaded, err := repo.GetVariantByID(variant.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("stock want 3 got %d", reloaded.Stock)
	}

	if _, err := repo.DecrementStock(variant.ID, 0); err == nil {
		t.Fatalf("zero quantity should be rejected")
	}
}

func TestLockVariantsByIDsInsideTransaction(t *testing.T) {
	db := setupRepositoryTestDB(t, "product_repo_lock")
	repo := NewProductRepository(db)
	first := createTestVariant(t, db, "SKU-L1", 10000, 1)
	second := createTestVariant(t, db, "SKU-L2", 20000, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		variants, err := repo.WithTx(tx).LockVariantsByIDs([]uint{second.ID, first.ID, 999})
		if err != nil {
			return err
		}
		if len(variants) != 2 {
			t.Fatalf("locked variants want 2 got %d", len(variants))
		}
		if variants[0].ID != first.ID || variants[1].ID != second.ID {
			t.Fatalf("variants should be locked in id order")
		}
		if variants[0].Product == nil || variants[0].Product.Name == "" {
			t.Fatalf("variant product should be preloaded")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

func TestProductListFiltersByCategoryAndActive(t *testing.T) {
	db := setupRepositoryTestDB(t, "product_repo_list")
	repo := NewProductRepository(db)
	category := &models.Category{Name: "Pakaian", Slug: "pakaian"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	products := []models.Product{
		{CategoryID: category.ID, Name: "A", Slug: "a", IsActive: true},
		{CategoryID: category.ID, Name: "B", Slug: "b", IsActive: false},
		{CategoryID: category.ID + 1, Name: "C", Slug: "c", IsActive: true},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			t.Fatalf("create product failed: %v", err)
		}
	}
	// gorm 的 bool 零值不会写入，手动置为下架
	if err := db.Model(&models.Product{}).Where("slug = ?", "b").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	rows, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 10, CategoryID: category.ID, OnlyActive: true})
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Slug != "a" {
		t.Fatalf("unexpected product list: total=%d rows=%+v", total, rows)
	}
}
