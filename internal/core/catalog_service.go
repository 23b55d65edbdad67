package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Bulk price update targets.
const (
	BulkTargetCategory = "category"
	BulkTargetSupplier = "supplier"
)

// ArticleFilter narrows ListArticles. Query matches the article name
// case-insensitively.
type ArticleFilter struct {
	Query      string
	CategoryID *int
	SupplierID *int
}

// ArticleInput is the input for creating an article.
type ArticleInput struct {
	Name          string
	Unit          string // defaults to "unit"
	AllowsDecimal bool
	Cost          decimal.Decimal
	Price         decimal.Decimal
	SupplierID    *int
	CategoryID    *int
}

// ArticlePatch is a partial update; nil fields are left unchanged.
// Any update bumps the article's price-change timestamp.
type ArticlePatch struct {
	Name          *string
	Unit          *string
	AllowsDecimal *bool
	Cost          *decimal.Decimal
	Price         *decimal.Decimal
	SupplierID    *int
	CategoryID    *int
}

// CatalogService manages articles, suppliers, and categories.
type CatalogService interface {
	ListArticles(ctx context.Context, filter ArticleFilter) ([]Article, error)
	GetArticle(ctx context.Context, id int) (*Article, error)
	CreateArticle(ctx context.Context, input ArticleInput) (*Article, error)
	UpdateArticle(ctx context.Context, id int, patch ArticlePatch) (*Article, error)
	// DeactivateArticle soft-deletes: the row stays for historical order
	// items and pack lines.
	DeactivateArticle(ctx context.Context, id int) error
	// BulkPriceUpdate multiplies the price of every active article under the
	// target by (1 + percentage/100), rounded to 2 decimals, bumping each
	// price-change timestamp. Articles are updated independently; a failing
	// article is logged and skipped. Returns the number updated.
	BulkPriceUpdate(ctx context.Context, target string, targetID int, percentage decimal.Decimal) (int, error)

	ListSuppliers(ctx context.Context) ([]Supplier, error)
	CreateSupplier(ctx context.Context, name, phone string) (*Supplier, error)
	UpdateSupplier(ctx context.Context, id int, name string) (*Supplier, error)
	// DeleteSupplier removes the supplier; its articles get a NULL supplier
	// reference in the same transaction.
	DeleteSupplier(ctx context.Context, id int) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	UpdateCategory(ctx context.Context, id int, name string) (*Category, error)
	// DeleteCategory refuses while any article or pack references the
	// category. The guard lives here, not in a DB constraint.
	DeleteCategory(ctx context.Context, id int) error
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

const articleColumns = `
	a.id, a.name, a.unit, a.allows_decimal, a.cost, a.price, a.price_changed_at,
	a.is_active, a.supplier_id, COALESCE(s.name, ''), a.category_id, COALESCE(c.name, ''), a.created_at`

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Name, &a.Unit, &a.AllowsDecimal, &a.Cost, &a.Price, &a.PriceChangedAt,
		&a.IsActive, &a.SupplierID, &a.SupplierName, &a.CategoryID, &a.CategoryName, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ── Articles ─────────────────────────────────────────────────────────────────

func (s *catalogService) ListArticles(ctx context.Context, filter ArticleFilter) ([]Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		LEFT JOIN suppliers s ON s.id = a.supplier_id
		LEFT JOIN categories c ON c.id = a.category_id
		WHERE a.is_active = true
		  AND ($1 = '' OR a.name ILIKE '%' || $1 || '%')
		  AND ($2::int IS NULL OR a.category_id = $2)
		  AND ($3::int IS NULL OR a.supplier_id = $3)
		ORDER BY a.name
	`, filter.Query, filter.CategoryID, filter.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func (s *catalogService) GetArticle(ctx context.Context, id int) (*Article, error) {
	a, err := scanArticle(s.pool.QueryRow(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		LEFT JOIN suppliers s ON s.id = a.supplier_id
		LEFT JOIN categories c ON c.id = a.category_id
		WHERE a.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("article %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch article %d: %w", id, err)
	}
	return a, nil
}

func (s *catalogService) CreateArticle(ctx context.Context, input ArticleInput) (*Article, error) {
	if input.Name == "" {
		return nil, validationf("article name is required")
	}
	unit := input.Unit
	if unit == "" {
		unit = "unit"
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO articles (name, unit, allows_decimal, cost, price, supplier_id, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, input.Name, unit, input.AllowsDecimal, input.Cost, input.Price, input.SupplierID, input.CategoryID).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}
	return s.GetArticle(ctx, id)
}

func (s *catalogService) UpdateArticle(ctx context.Context, id int, patch ArticlePatch) (*Article, error) {
	ct, err := s.pool.Exec(ctx, `
		UPDATE articles SET
			name = COALESCE($2, name),
			unit = COALESCE($3, unit),
			allows_decimal = COALESCE($4, allows_decimal),
			cost = COALESCE($5, cost),
			price = COALESCE($6, price),
			supplier_id = COALESCE($7, supplier_id),
			category_id = COALESCE($8, category_id),
			price_changed_at = now()
		WHERE id = $1
	`, id, patch.Name, patch.Unit, patch.AllowsDecimal, patch.Cost, patch.Price, patch.SupplierID, patch.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to update article %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return nil, fmt.Errorf("article %d: %w", id, ErrNotFound)
	}
	return s.GetArticle(ctx, id)
}

func (s *catalogService) DeactivateArticle(ctx context.Context, id int) error {
	ct, err := s.pool.Exec(ctx, "UPDATE articles SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate article %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("article %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *catalogService) BulkPriceUpdate(ctx context.Context, target string, targetID int, percentage decimal.Decimal) (int, error) {
	var column string
	switch target {
	case BulkTargetCategory:
		column = "category_id"
	case BulkTargetSupplier:
		column = "supplier_id"
	default:
		return 0, validationf("bulk price target must be %q or %q", BulkTargetCategory, BulkTargetSupplier)
	}
	if percentage.IsZero() {
		return 0, validationf("percentage must be non-zero")
	}

	rows, err := s.pool.Query(ctx,
		"SELECT id FROM articles WHERE is_active = true AND "+column+" = $1 ORDER BY id",
		targetID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to query articles for bulk update: %w", err)
	}
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan article id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read articles for bulk update: %w", err)
	}

	factor := decimal.NewFromInt(1).Add(percentage.Div(decimal.NewFromInt(100)))

	// Each article is updated on its own: a failure mid-sequence leaves the
	// earlier updates applied.
	updated := 0
	for _, id := range ids {
		_, err := s.pool.Exec(ctx, `
			UPDATE articles
			SET price = round(price * $2::numeric, 2), price_changed_at = now()
			WHERE id = $1
		`, id, factor)
		if err != nil {
			log.Printf("bulk price update: article %d skipped: %v", id, err)
			continue
		}
		updated++
	}
	return updated, nil
}

// ── Suppliers ────────────────────────────────────────────────────────────────

func (s *catalogService) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, phone, created_at FROM suppliers ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var sp Supplier
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Phone, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, sp)
	}
	return suppliers, rows.Err()
}

func (s *catalogService) CreateSupplier(ctx context.Context, name, phone string) (*Supplier, error) {
	if name == "" {
		return nil, validationf("supplier name is required")
	}
	var sp Supplier
	err := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, phone) VALUES ($1, $2)
		RETURNING id, name, phone, created_at
	`, name, phone).Scan(&sp.ID, &sp.Name, &sp.Phone, &sp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return &sp, nil
}

func (s *catalogService) UpdateSupplier(ctx context.Context, id int, name string) (*Supplier, error) {
	if name == "" {
		return nil, validationf("supplier name is required")
	}
	var sp Supplier
	err := s.pool.QueryRow(ctx, `
		UPDATE suppliers SET name = $2 WHERE id = $1
		RETURNING id, name, phone, created_at
	`, id, name).Scan(&sp.ID, &sp.Name, &sp.Phone, &sp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update supplier %d: %w", id, err)
	}
	return &sp, nil
}

func (s *catalogService) DeleteSupplier(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "UPDATE articles SET supplier_id = NULL WHERE supplier_id = $1", id); err != nil {
		return fmt.Errorf("failed to detach articles from supplier %d: %w", id, err)
	}
	ct, err := tx.Exec(ctx, "DELETE FROM suppliers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("supplier %d: %w", id, ErrNotFound)
	}
	return tx.Commit(ctx)
}

// ── Categories ───────────────────────────────────────────────────────────────

func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (*Category, error) {
	if name == "" {
		return nil, validationf("category name is required")
	}
	var c Category
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (name) VALUES ($1)
		RETURNING id, name, created_at
	`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &c, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id int, name string) (*Category, error) {
	if name == "" {
		return nil, validationf("category name is required")
	}
	var c Category
	err := s.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2 WHERE id = $1
		RETURNING id, name, created_at
	`, id, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update category %d: %w", id, err)
	}
	return &c, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id int) error {
	// Inactive articles count too: reactivating one must not surface a
	// dangling category.
	var refs int
	err := s.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM articles WHERE category_id = $1)
		     + (SELECT COUNT(*) FROM packs WHERE category_id = $1)
	`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count category references: %w", err)
	}
	if refs > 0 {
		return validationf("category %d is referenced by articles or packs and cannot be deleted", id)
	}

	ct, err := s.pool.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return nil
}
