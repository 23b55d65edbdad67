package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// OrderService manages the order lifecycle. Closing and deletion are the
// only paths that touch a customer's balance, and both run as a single
// transaction with the order row locked, so two concurrent closes cannot
// double-charge: the second blocks on the lock and then sees closed.
type OrderService interface {
	CreateOrder(ctx context.Context, input OrderInput) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	GetOrder(ctx context.Context, id int) (*Order, error)
	// UpdateOrder replaces the full item set when one is supplied (no
	// partial patch of lines) and recomputes the total. Item replacement
	// and status changes are rejected on closed orders.
	UpdateOrder(ctx context.Context, id int, patch OrderPatch) (*Order, error)
	// CloseOrder atomically charges the customer the order's total, appends
	// a charge entry, and stamps the order closed. Closing an already
	// closed order is a validation error with no side effects.
	CloseOrder(ctx context.Context, id int) (*Order, error)
	// DeleteOrder removes the order and its items. A closed order's charge
	// is reversed first (balance decrement + reversal entry). Ledger entries
	// referencing the order are orphaned, never deleted.
	DeleteOrder(ctx context.Context, id int) error
}

type orderService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

func NewOrderService(pool *pgxpool.Pool, ledger *Ledger) OrderService {
	return &orderService{pool: pool, ledger: ledger}
}

// validateItems checks every line against its article and returns
// validation errors for empty sets, zero quantities, fractional quantities
// on articles that do not allow them, out-of-range discounts, and unknown
// status tags.
func validateItems(ctx context.Context, q pgxQuerier, items []OrderItemInput) error {
	if len(items) == 0 {
		return validationf("order requires at least one item")
	}
	hundred := decimal.NewFromInt(100)
	for i, it := range items {
		if it.Quantity.IsZero() {
			return validationf("item %d: quantity must be non-zero", i+1)
		}
		if it.DiscountPct.IsNegative() || it.DiscountPct.GreaterThan(hundred) {
			return validationf("item %d: discount must be between 0 and 100", i+1)
		}
		switch it.ItemStatus {
		case "", ItemDelivered, ItemExchange, ItemReturn:
		default:
			return validationf("item %d: unknown item status %q", i+1, it.ItemStatus)
		}

		var allowsDecimal bool
		err := q.QueryRow(ctx, "SELECT allows_decimal FROM articles WHERE id = $1", it.ArticleID).Scan(&allowsDecimal)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return validationf("item %d: article %d does not exist", i+1, it.ArticleID)
			}
			return fmt.Errorf("item %d: failed to resolve article %d: %w", i+1, it.ArticleID, err)
		}
		if !allowsDecimal && !it.Quantity.IsInteger() {
			return validationf("item %d: article %d is sold in whole units", i+1, it.ArticleID)
		}
	}
	return nil
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID int, items []OrderItemInput) error {
	for i, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, article_id, quantity, unit_price, discount_pct, item_status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, orderID, it.ArticleID, it.Quantity, it.UnitPrice, it.DiscountPct, it.ItemStatus)
		if err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *orderService) CreateOrder(ctx context.Context, input OrderInput) (*Order, error) {
	status := input.Status
	if status == "" {
		status = OrderPending
	}
	if status != OrderPending && status != OrderAssembled {
		return nil, validationf("new order status must be %q or %q", OrderPending, OrderAssembled)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := validateItems(ctx, tx, input.Items); err != nil {
		return nil, err
	}

	// Snapshot the customer's balance for statement printing.
	var priorBalance decimal.Decimal
	err = tx.QueryRow(ctx, "SELECT balance FROM customers WHERE id = $1", input.CustomerID).Scan(&priorBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", input.CustomerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve customer %d: %w", input.CustomerID, err)
	}

	total := OrderTotal(input.Items)

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (customer_id, status, total, prior_balance, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, input.CustomerID, status, total, priorBalance, input.Notes).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	if err := insertItems(ctx, tx, orderID, input.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	if filter.Status != "" {
		switch filter.Status {
		case OrderPending, OrderAssembled, OrderClosed:
		default:
			return nil, validationf("unknown order status %q", filter.Status)
		}
	}
	return loadOrders(ctx, s.pool,
		"($1 = '' OR o.status = $1) AND ($2::int IS NULL OR o.customer_id = $2)",
		filter.Status, filter.CustomerID)
}

func (s *orderService) GetOrder(ctx context.Context, id int) (*Order, error) {
	orders, err := loadOrders(ctx, s.pool, "o.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return &orders[0], nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id int, patch OrderPatch) (*Order, error) {
	if patch.Status != nil && *patch.Status != OrderPending && *patch.Status != OrderAssembled {
		return nil, validationf("order status can only be set to %q or %q; closing goes through the close operation", OrderPending, OrderAssembled)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
	}
	if status == OrderClosed {
		if patch.Items != nil {
			return nil, validationf("order %d is closed: items can no longer be modified", id)
		}
		if patch.Status != nil {
			return nil, validationf("order %d is closed: status can no longer change", id)
		}
	}

	var total *decimal.Decimal
	if patch.Items != nil {
		if err := validateItems(ctx, tx, patch.Items); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM order_items WHERE order_id = $1", id); err != nil {
			return nil, fmt.Errorf("failed to clear order items: %w", err)
		}
		if err := insertItems(ctx, tx, id, patch.Items); err != nil {
			return nil, err
		}
		t := OrderTotal(patch.Items)
		total = &t
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET
			notes = COALESCE($2, notes),
			status = COALESCE($3, status),
			total = COALESCE($4, total)
		WHERE id = $1
	`, id, patch.Notes, patch.Status, total)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order update: %w", err)
	}
	return s.GetOrder(ctx, id)
}

func (s *orderService) CloseOrder(ctx context.Context, id int) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID, orderNumber int
	var status string
	var total decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT customer_id, order_number, status, total FROM orders WHERE id = $1 FOR UPDATE",
		id,
	).Scan(&customerID, &orderNumber, &status, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
	}
	if status == OrderClosed {
		return nil, validationf("order #%d is already closed", orderNumber)
	}

	if _, err := tx.Exec(ctx, "SELECT id FROM customers WHERE id = $1 FOR UPDATE", customerID); err != nil {
		return nil, fmt.Errorf("failed to lock customer %d: %w", customerID, err)
	}
	if _, err := s.ledger.AppendTx(ctx, tx, customerID, &id, EntryCharge, total, fmt.Sprintf("Order #%d", orderNumber)); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = $2, closed_at = now() WHERE id = $1",
		id, OrderClosed,
	); err != nil {
		return nil, fmt.Errorf("failed to close order %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order close: %w", err)
	}
	return s.GetOrder(ctx, id)
}

func (s *orderService) DeleteOrder(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID, orderNumber int
	var status string
	var total decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT customer_id, order_number, status, total FROM orders WHERE id = $1 FOR UPDATE",
		id,
	).Scan(&customerID, &orderNumber, &status, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch order %d: %w", id, err)
	}

	if status == OrderClosed {
		if _, err := tx.Exec(ctx, "SELECT id FROM customers WHERE id = $1 FOR UPDATE", customerID); err != nil {
			return fmt.Errorf("failed to lock customer %d: %w", customerID, err)
		}
		if _, err := s.ledger.AppendTx(ctx, tx, customerID, &id, EntryReversal, total.Neg(), fmt.Sprintf("Reversal of order #%d", orderNumber)); err != nil {
			return err
		}
	}

	// Keep the audit trail: entries lose their order reference, including
	// the reversal just written.
	if _, err := tx.Exec(ctx, "UPDATE ledger_entries SET order_id = NULL WHERE order_id = $1", id); err != nil {
		return fmt.Errorf("failed to orphan ledger entries for order %d: %w", id, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM order_items WHERE order_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete items for order %d: %w", id, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM orders WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}

	return tx.Commit(ctx)
}

// loadOrders fetches order headers matching the WHERE fragment, newest
// first, with customer names and item sets attached.
func loadOrders(ctx context.Context, q pgxQuerier, where string, args ...any) ([]Order, error) {
	rows, err := q.Query(ctx, `
		SELECT o.id, o.order_number, o.customer_id, c.name, o.status, o.total,
		       o.prior_balance, o.notes, o.created_at, o.closed_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE `+where+`
		ORDER BY o.created_at DESC, o.id DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	var ids []int64
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.Status,
			&o.Total, &o.PriorBalance, &o.Notes, &o.CreatedAt, &o.ClosedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Items = []OrderItem{}
		orders = append(orders, o)
		ids = append(ids, int64(o.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := q.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.article_id, a.name, a.unit,
		       oi.quantity, oi.unit_price, oi.discount_pct, oi.item_status
		FROM order_items oi
		JOIN articles a ON a.id = oi.article_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()

	byOrder := make(map[int][]OrderItem, len(orders))
	for itemRows.Next() {
		var it OrderItem
		if err := itemRows.Scan(&it.ID, &it.OrderID, &it.ArticleID, &it.ArticleName, &it.Unit,
			&it.Quantity, &it.UnitPrice, &it.DiscountPct, &it.ItemStatus); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if items, ok := byOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}
	return orders, nil
}
