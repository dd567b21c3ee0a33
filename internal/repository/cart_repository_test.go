package repository

import (
	"testing"

	"github.com/tokonext/internal/models"

	"gorm.io/gorm"
)

func TestCartAddQuantityIncrementsExistingLine(t *testing.T) {
	db := setupRepositoryTestDB(t, "cart_repo_add")
	repo := NewCartRepository(db)
	variant := createTestVariant(t, db, "SKU-CART", 50000, 5)

	if err := repo.AddQuantity(1, variant.ID, 1); err != nil {
		t.Fatalf("add cart item failed: %v", err)
	}
	if err := repo.AddQuantity(1, variant.ID, 2); err != nil {
		t.Fatalf("add cart item again failed: %v", err)
	}

	items, err := repo.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("cart lines want 1 got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("quantity want 3 got %d", items[0].Quantity)
	}
	if items[0].Variant == nil || items[0].Variant.Product == nil {
		t.Fatalf("variant and product should be preloaded")
	}
}

func TestCartSelectedLinesAreScopedToUser(t *testing.T) {
	db := setupRepositoryTestDB(t, "cart_repo_scope")
	repo := NewCartRepository(db)
	first := createTestVariant(t, db, "SKU-S1", 10000, 5)
	second := createTestVariant(t, db, "SKU-S2", 20000, 5)

	for _, tc := range []struct {
		userID    uint
		variantID uint
	}{
		{1, first.ID},
		{1, second.ID},
		{2, first.ID},
	} {
		if err := repo.AddQuantity(tc.userID, tc.variantID, 1); err != nil {
			t.Fatalf("seed cart failed: %v", err)
		}
	}
	own, _ := repo.ListByUser(1)
	other, _ := repo.ListByUser(2)

	selected, err := repo.ListByUserAndIDs(1, []uint{own[0].ID, other[0].ID})
	if err != nil {
		t.Fatalf("list selected failed: %v", err)
	}
	if len(selected) != 1 || selected[0].ID != own[0].ID {
		t.Fatalf("foreign cart line should be ignored: %+v", selected)
	}

	deleted, err := repo.DeleteByUserAndIDs(1, []uint{own[0].ID, other[0].ID})
	if err != nil {
		t.Fatalf("delete selected failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("only the caller's line should count as deleted, got %d", deleted)
	}
	if again, _ := repo.DeleteByUserAndIDs(1, []uint{own[0].ID}); again != 0 {
		t.Fatalf("deleting a consumed line should affect 0 rows, got %d", again)
	}
	remaining, _ := repo.ListByUser(1)
	if len(remaining) != 1 || remaining[0].ID != own[1].ID {
		t.Fatalf("only the selected line should be removed: %+v", remaining)
	}
	otherAfter, _ := repo.ListByUser(2)
	if len(otherAfter) != 1 {
		t.Fatalf("other user's cart should be untouched")
	}
}

func TestCartLockByUserInsideTransaction(t *testing.T) {
	db := setupRepositoryTestDB(t, "cart_repo_lock")
	repo := NewCartRepository(db)
	first := createTestVariant(t, db, "SKU-CL1", 10000, 5)
	second := createTestVariant(t, db, "SKU-CL2", 20000, 5)
	for _, variantID := range []uint{second.ID, first.ID} {
		if err := repo.AddQuantity(1, variantID, 1); err != nil {
			t.Fatalf("seed cart failed: %v", err)
		}
	}
	if err := repo.AddQuantity(2, first.ID, 1); err != nil {
		t.Fatalf("seed cart failed: %v", err)
	}
	own, _ := repo.ListByUser(1)

	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		all, err := txRepo.LockByUser(1, nil)
		if err != nil {
			return err
		}
		if len(all) != 2 || all[0].ID > all[1].ID {
			t.Fatalf("all own lines should be locked in id order: %+v", all)
		}
		subset, err := txRepo.LockByUser(1, []uint{own[1].ID})
		if err != nil {
			return err
		}
		if len(subset) != 1 || subset[0].ID != own[1].ID {
			t.Fatalf("subset lock mismatch: %+v", subset)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

func TestCartReplaceWithKeepsSingleLine(t *testing.T) {
	db := setupRepositoryTestDB(t, "cart_repo_replace")
	repo := NewCartRepository(db)
	first := createTestVariant(t, db, "SKU-R1", 10000, 5)
	second := createTestVariant(t, db, "SKU-R2", 20000, 5)
	if err := repo.AddQuantity(7, first.ID, 2); err != nil {
		t.Fatalf("seed cart failed: %v", err)
	}

	if err := repo.ReplaceWith(7, &models.CartItem{VariantID: second.ID, Quantity: 1}); err != nil {
		t.Fatalf("replace cart failed: %v", err)
	}
	items, _ := repo.ListByUser(7)
	if len(items) != 1 || items[0].VariantID != second.ID || items[0].Quantity != 1 {
		t.Fatalf("unexpected cart after replace: %+v", items)
	}
}
