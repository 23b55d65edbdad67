package core_test

import (
	"context"
	"errors"
	"testing"

	"distripanel/internal/core"

	"github.com/shopspring/decimal"
)

func TestCatalogService_ArticleFilters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)

	byName, err := catalog.ListArticles(ctx, core.ArticleFilter{Query: "flour"})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Flour 000 1kg" {
		t.Fatalf("Search 'flour': got %+v", byName)
	}
	if byName[0].SupplierName != "Molinos del Sur" || byName[0].CategoryName != "Dry goods" {
		t.Errorf("Joined names missing: supplier=%q category=%q", byName[0].SupplierName, byName[0].CategoryName)
	}

	coldChain := 2
	byCategory, err := catalog.ListArticles(ctx, core.ArticleFilter{CategoryID: &coldChain})
	if err != nil {
		t.Fatalf("ListArticles by category failed: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].Name != "Ground beef" {
		t.Fatalf("Category filter: got %+v", byCategory)
	}
}

func TestCatalogService_UpdateBumpsPriceTimestamp(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)

	before, err := catalog.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}

	newPrice := mustDecimal(t, "720.00")
	after, err := catalog.UpdateArticle(ctx, 1, core.ArticlePatch{Price: &newPrice})
	if err != nil {
		t.Fatalf("UpdateArticle failed: %v", err)
	}
	if !after.Price.Equal(newPrice) {
		t.Errorf("Price: got %s, want 720.00", after.Price)
	}
	if !after.PriceChangedAt.After(before.PriceChangedAt) {
		t.Errorf("PriceChangedAt was not bumped: %s -> %s", before.PriceChangedAt, after.PriceChangedAt)
	}
	if after.Cost.Equal(decimal.Zero) {
		t.Error("Cost must survive a price-only patch")
	}
}

func TestCatalogService_BulkPriceUpdate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)

	// +10% on the dry goods category: only article 1 qualifies.
	updated, err := catalog.BulkPriceUpdate(ctx, core.BulkTargetCategory, 1, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("BulkPriceUpdate failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("Updated count: got %d, want 1", updated)
	}

	article, err := catalog.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if !article.Price.Equal(mustDecimal(t, "748.00")) {
		t.Errorf("Price after +10%%: got %s, want 748.00", article.Price)
	}

	// Inactive articles are left alone.
	if err := catalog.DeactivateArticle(ctx, 1); err != nil {
		t.Fatalf("DeactivateArticle failed: %v", err)
	}
	updated, err = catalog.BulkPriceUpdate(ctx, core.BulkTargetCategory, 1, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("Second BulkPriceUpdate failed: %v", err)
	}
	if updated != 0 {
		t.Errorf("Updated count on inactive set: got %d, want 0", updated)
	}

	if _, err := catalog.BulkPriceUpdate(ctx, "warehouse", 1, decimal.NewFromInt(10)); !core.IsValidation(err) {
		t.Errorf("Expected validation error for unknown target, got: %v", err)
	}
}

func TestCatalogService_DeleteSupplierDetachesArticles(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)

	if err := catalog.DeleteSupplier(ctx, 1); err != nil {
		t.Fatalf("DeleteSupplier failed: %v", err)
	}

	article, err := catalog.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if article.SupplierID != nil {
		t.Errorf("Article still references deleted supplier: %d", *article.SupplierID)
	}

	suppliers, err := catalog.ListSuppliers(ctx)
	if err != nil {
		t.Fatalf("ListSuppliers failed: %v", err)
	}
	if len(suppliers) != 0 {
		t.Errorf("Supplier list after delete: got %d, want 0", len(suppliers))
	}
}

func TestCatalogService_DeleteCategoryGuard(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	catalog := core.NewCatalogService(pool)

	// Category 1 is referenced by the flour article.
	if err := catalog.DeleteCategory(ctx, 1); !core.IsValidation(err) {
		t.Fatalf("Expected validation error deleting a referenced category, got: %v", err)
	}

	// Detach the article, then the delete goes through.
	_, err := pool.Exec(ctx, "UPDATE articles SET category_id = NULL WHERE category_id = 1")
	if err != nil {
		t.Fatalf("Failed to detach article: %v", err)
	}
	if err := catalog.DeleteCategory(ctx, 1); err != nil {
		t.Fatalf("DeleteCategory failed after detach: %v", err)
	}

	if err := catalog.DeleteCategory(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected not found for unknown category, got: %v", err)
	}
}
