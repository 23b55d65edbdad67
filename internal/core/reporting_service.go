package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Consolidation modes. GroupByCustomer produces a per-customer picking
// list; GroupByCategory a per-category production list.
const (
	GroupByCustomer = "customer"
	GroupByCategory = "category"
)

// frequentArticlesCap bounds the frequent-articles report.
const frequentArticlesCap = 20

// uncategorizedGroup labels articles without a category in category-mode
// consolidation.
const uncategorizedGroup = "Uncategorized"

// ConsolidatedItem is one article's summed quantity within a group.
type ConsolidatedItem struct {
	ArticleID int             `json:"article_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ConsolidationGroup is one customer (or category) with its consolidated
// items, both sorted alphabetically.
type ConsolidationGroup struct {
	Group string             `json:"group"`
	Items []ConsolidatedItem `json:"items"`
}

// FrequentArticle is one entry of the per-customer frequent-purchases list.
type FrequentArticle struct {
	ArticleID     int             `json:"article_id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	TimesOrdered  int             `json:"times_ordered"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	LastUnitPrice decimal.Decimal `json:"last_unit_price"`
}

// ReportingService provides read-only aggregations over orders and items.
type ReportingService interface {
	// Consolidate sums the line items of the given orders into a grouped
	// picking list. Non-positive quantities (returns) are skipped. mode is
	// GroupByCustomer (the default when empty) or GroupByCategory.
	Consolidate(ctx context.Context, orderIDs []int, mode string) ([]ConsolidationGroup, error)
	// FrequentArticles aggregates, over the customer's closed orders only,
	// how often each active article was ordered and at what price it was
	// last seen, most-ordered first, capped at 20.
	FrequentArticles(ctx context.Context, customerID int) ([]FrequentArticle, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

// pickedRow is one raw order line with its grouping labels attached.
type pickedRow struct {
	Customer  string
	Category  string
	ArticleID int
	Article   string
	Unit      string
	Quantity  decimal.Decimal
}

func (s *reportingService) Consolidate(ctx context.Context, orderIDs []int, mode string) ([]ConsolidationGroup, error) {
	if len(orderIDs) == 0 {
		return nil, validationf("at least one order id is required")
	}
	switch mode {
	case "", GroupByCustomer, GroupByCategory:
	default:
		return nil, validationf("consolidation mode must be %q or %q", GroupByCustomer, GroupByCategory)
	}

	ids := make([]int64, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = int64(id)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT c.name, COALESCE(cat.name, ''), a.id, a.name, a.unit, oi.quantity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN customers c ON c.id = o.customer_id
		JOIN articles a ON a.id = oi.article_id
		LEFT JOIN categories cat ON cat.id = a.category_id
		WHERE oi.order_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items for consolidation: %w", err)
	}
	defer rows.Close()

	var picked []pickedRow
	for rows.Next() {
		var p pickedRow
		if err := rows.Scan(&p.Customer, &p.Category, &p.ArticleID, &p.Article, &p.Unit, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan picking row: %w", err)
		}
		picked = append(picked, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return consolidate(picked, mode), nil
}

// consolidate groups raw rows by customer (or category), sums quantities
// per article, drops non-positive quantities, and sorts groups and items
// alphabetically. Pure so it can be tested without a database.
func consolidate(rows []pickedRow, mode string) []ConsolidationGroup {
	groupOf := func(r pickedRow) string {
		if mode == GroupByCategory {
			if r.Category == "" {
				return uncategorizedGroup
			}
			return r.Category
		}
		return r.Customer
	}

	type groupKey struct {
		group     string
		articleID int
	}
	sums := make(map[groupKey]*ConsolidatedItem)
	for _, r := range rows {
		if !r.Quantity.IsPositive() {
			continue
		}
		key := groupKey{groupOf(r), r.ArticleID}
		if item, ok := sums[key]; ok {
			item.Quantity = item.Quantity.Add(r.Quantity)
			continue
		}
		sums[key] = &ConsolidatedItem{
			ArticleID: r.ArticleID,
			Name:      r.Article,
			Unit:      r.Unit,
			Quantity:  r.Quantity,
		}
	}

	byGroup := make(map[string][]ConsolidatedItem)
	for key, item := range sums {
		byGroup[key.group] = append(byGroup[key.group], *item)
	}

	result := make([]ConsolidationGroup, 0, len(byGroup))
	for group, items := range byGroup {
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
		result = append(result, ConsolidationGroup{Group: group, Items: items})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Group < result[j].Group })
	return result
}

func (s *reportingService) FrequentArticles(ctx context.Context, customerID int) ([]FrequentArticle, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)", customerID).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to resolve customer %d: %w", customerID, err)
	}
	if !exists {
		return nil, fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.name, a.unit,
		       COUNT(*) AS times_ordered,
		       SUM(oi.quantity) AS total_quantity,
		       (ARRAY_AGG(oi.unit_price ORDER BY o.created_at DESC, oi.id DESC))[1] AS last_unit_price
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN articles a ON a.id = oi.article_id
		WHERE o.customer_id = $1 AND o.status = $2 AND a.is_active = true
		GROUP BY a.id, a.name, a.unit
		ORDER BY times_ordered DESC, a.name
		LIMIT $3
	`, customerID, OrderClosed, frequentArticlesCap)
	if err != nil {
		return nil, fmt.Errorf("failed to query frequent articles: %w", err)
	}
	defer rows.Close()

	var out []FrequentArticle
	for rows.Next() {
		var f FrequentArticle
		if err := rows.Scan(&f.ArticleID, &f.Name, &f.Unit, &f.TimesOrdered, &f.TotalQuantity, &f.LastUnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan frequent article: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
