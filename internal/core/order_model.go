package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a customer order header. Total and PriorBalance are snapshots:
// Total is recomputed only when the item set changes, and PriorBalance is
// the customer's balance at creation time, kept for statement printing.
type Order struct {
	ID           int             `json:"id"`
	OrderNumber  int             `json:"order_number"`
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"` // joined from customers
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	PriorBalance decimal.Decimal `json:"prior_balance"`
	Notes        string          `json:"notes"`
	Items        []OrderItem     `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	ClosedAt     *time.Time      `json:"closed_at,omitempty"`
}

// OrderItem is one line of an order. UnitPrice is snapshotted when the line
// is written and never follows the article's live price. A negative
// Quantity denotes a return.
type OrderItem struct {
	ID          int             `json:"id"`
	OrderID     int             `json:"order_id"`
	ArticleID   int             `json:"article_id"`
	ArticleName string          `json:"article_name"` // joined from articles
	Unit        string          `json:"unit"`         // joined from articles
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	ItemStatus  string          `json:"item_status,omitempty"`
}

// OrderItemInput is one line supplied when creating an order or replacing
// its item set.
type OrderItemInput struct {
	ArticleID   int
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	ItemStatus  string
}

// OrderInput is the input for creating a new order.
type OrderInput struct {
	CustomerID int
	Status     string // pending (default) or assembled
	Notes      string
	Items      []OrderItemInput
}

// OrderPatch is a partial update. A nil Items slice leaves the item set
// untouched; a non-nil slice fully replaces it.
type OrderPatch struct {
	Notes  *string
	Status *string
	Items  []OrderItemInput
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Status     string
	CustomerID *int
}

// LineTotal returns quantity × unitPrice × (1 − discountPct/100), rounded
// to 2 decimal places.
func LineTotal(quantity, unitPrice, discountPct decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountPct.Div(decimal.NewFromInt(100)))
	return quantity.Mul(unitPrice).Mul(factor).Round(2)
}

// OrderTotal sums the line totals of an item set.
func OrderTotal(items []OrderItemInput) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(LineTotal(it.Quantity, it.UnitPrice, it.DiscountPct))
	}
	return total
}
