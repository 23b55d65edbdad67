package core_test

import (
	"context"
	"errors"
	"testing"

	"distripanel/internal/core"

	"github.com/shopspring/decimal"
)

func newOrderService(t *testing.T) (core.OrderService, *core.Ledger, context.Context, func()) {
	t.Helper()
	pool := setupTestDB(t)
	ledger := core.NewLedger(pool)
	return core.NewOrderService(pool, ledger), ledger, context.Background(), pool.Close
}

func TestOrderService_CreateValidation(t *testing.T) {
	orders, _, ctx, closePool := newOrderService(t)
	defer closePool()

	tests := []struct {
		name  string
		input core.OrderInput
	}{
		{"no items", core.OrderInput{CustomerID: 1}},
		{"unknown customer", core.OrderInput{
			CustomerID: 9999,
			Items:      []core.OrderItemInput{{ArticleID: 1, Quantity: decimal.NewFromInt(1), UnitPrice: mustDecimal(t, "680.00")}},
		}},
		{"unknown article", core.OrderInput{
			CustomerID: 1,
			Items:      []core.OrderItemInput{{ArticleID: 9999, Quantity: decimal.NewFromInt(1), UnitPrice: mustDecimal(t, "680.00")}},
		}},
		{"zero quantity", core.OrderInput{
			CustomerID: 1,
			Items:      []core.OrderItemInput{{ArticleID: 1, Quantity: decimal.Zero, UnitPrice: mustDecimal(t, "680.00")}},
		}},
		{"fractional quantity on unit article", core.OrderInput{
			CustomerID: 1,
			Items:      []core.OrderItemInput{{ArticleID: 1, Quantity: mustDecimal(t, "1.5"), UnitPrice: mustDecimal(t, "680.00")}},
		}},
		{"discount above 100", core.OrderInput{
			CustomerID: 1,
			Items:      []core.OrderItemInput{{ArticleID: 1, Quantity: decimal.NewFromInt(1), UnitPrice: mustDecimal(t, "680.00"), DiscountPct: decimal.NewFromInt(101)}},
		}},
		{"bad item status", core.OrderInput{
			CustomerID: 1,
			Items:      []core.OrderItemInput{{ArticleID: 1, Quantity: decimal.NewFromInt(1), UnitPrice: mustDecimal(t, "680.00"), ItemStatus: "lost"}},
		}},
		{"closed status at creation", core.OrderInput{
			CustomerID: 1,
			Status:     core.OrderClosed,
			Items:      []core.OrderItemInput{{ArticleID: 1, Quantity: decimal.NewFromInt(1), UnitPrice: mustDecimal(t, "680.00")}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orders.CreateOrder(ctx, tt.input)
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if !core.IsValidation(err) && !errors.Is(err, core.ErrNotFound) {
				t.Errorf("Expected validation or not-found error, got: %v", err)
			}
		})
	}
}

func TestOrderService_DecimalQuantityAllowed(t *testing.T) {
	orders, _, ctx, closePool := newOrderService(t)
	defer closePool()

	// Article 2 (ground beef) is sold by weight.
	order, err := orders.CreateOrder(ctx, core.OrderInput{
		CustomerID: 1,
		Items: []core.OrderItemInput{
			{ArticleID: 2, Quantity: mustDecimal(t, "1.25"), UnitPrice: mustDecimal(t, "5500.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if !order.Total.Equal(mustDecimal(t, "6875.00")) {
		t.Errorf("Total: got %s, want 6875.00", order.Total)
	}
}

func TestOrderService_UpdateReplacesItems(t *testing.T) {
	orders, _, ctx, closePool := newOrderService(t)
	defer closePool()

	order, err := orders.CreateOrder(ctx, core.OrderInput{
		CustomerID: 1,
		Items: []core.OrderItemInput{
			{ArticleID: 1, Quantity: decimal.NewFromInt(10), UnitPrice: mustDecimal(t, "680.00")},
			{ArticleID: 3, Quantity: decimal.NewFromInt(2), UnitPrice: mustDecimal(t, "950.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	updated, err := orders.UpdateOrder(ctx, order.ID, core.OrderPatch{
		Items: []core.OrderItemInput{
			{ArticleID: 1, Quantity: decimal.NewFromInt(3), UnitPrice: mustDecimal(t, "680.00")},
		},
	})
	if err != nil {
		t.Fatalf("UpdateOrder failed: %v", err)
	}
	if len(updated.Items) != 1 {
		t.Fatalf("Items after replace: got %d, want 1", len(updated.Items))
	}
	if !updated.Total.Equal(mustDecimal(t, "2040.00")) {
		t.Errorf("Total after replace: got %s, want 2040.00", updated.Total)
	}
}

func TestOrderService_StatusTransitions(t *testing.T) {
	orders, _, ctx, closePool := newOrderService(t)
	defer closePool()

	order, err := orders.CreateOrder(ctx, core.OrderInput{
		CustomerID: 1,
		Items: []core.OrderItemInput{
			{ArticleID: 1, Quantity: decimal.NewFromInt(1), UnitPrice: mustDecimal(t, "680.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.Status != core.OrderPending {
		t.Fatalf("Default status: got %s, want %s", order.Status, core.OrderPending)
	}

	assembled := core.OrderAssembled
	moved, err := orders.UpdateOrder(ctx, order.ID, core.OrderPatch{Status: &assembled})
	if err != nil {
		t.Fatalf("Move to assembled failed: %v", err)
	}
	if moved.Status != core.OrderAssembled {
		t.Fatalf("Status: got %s, want %s", moved.Status, core.OrderAssembled)
	}

	// Closing must go through CloseOrder so the charge is posted.
	closedStatus := core.OrderClosed
	if _, err := orders.UpdateOrder(ctx, order.ID, core.OrderPatch{Status: &closedStatus}); !core.IsValidation(err) {
		t.Errorf("Expected validation error when patching status to closed, got: %v", err)
	}
}

func TestOrderService_ClosedOrderIsFrozen(t *testing.T) {
	orders, _, ctx, closePool := newOrderService(t)
	defer closePool()

	order, err := orders.CreateOrder(ctx, core.OrderInput{
		CustomerID: 2,
		Items: []core.OrderItemInput{
			{ArticleID: 1, Quantity: decimal.NewFromInt(4), UnitPrice: mustDecimal(t, "680.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if _, err := orders.CloseOrder(ctx, order.ID); err != nil {
		t.Fatalf("CloseOrder failed: %v", err)
	}

	// Items are frozen.
	_, err = orders.UpdateOrder(ctx, order.ID, core.OrderPatch{
		Items: []core.OrderItemInput{
			{ArticleID: 1, Quantity: decimal.NewFromInt(1), UnitPrice: mustDecimal(t, "680.00")},
		},
	})
	if !core.IsValidation(err) {
		t.Errorf("Expected validation error replacing items on closed order, got: %v", err)
	}

	// Notes remain editable.
	note := "left at the back door"
	patched, err := orders.UpdateOrder(ctx, order.ID, core.OrderPatch{Notes: &note})
	if err != nil {
		t.Fatalf("Notes update on closed order failed: %v", err)
	}
	if patched.Notes != note {
		t.Errorf("Notes: got %q, want %q", patched.Notes, note)
	}

	// A second close is rejected and must not double-charge.
	if _, err := orders.CloseOrder(ctx, order.ID); !core.IsValidation(err) {
		t.Errorf("Expected validation error on double close, got: %v", err)
	}
}

func TestOrderService_ListFilters(t *testing.T) {
	orders, _, ctx, closePool := newOrderService(t)
	defer closePool()

	for _, customerID := range []int{1, 1, 2} {
		if _, err := orders.CreateOrder(ctx, core.OrderInput{
			CustomerID: customerID,
			Items: []core.OrderItemInput{
				{ArticleID: 1, Quantity: decimal.NewFromInt(1), UnitPrice: mustDecimal(t, "680.00")},
			},
		}); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}

	all, err := orders.ListOrders(ctx, core.OrderFilter{})
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("All orders: got %d, want 3", len(all))
	}

	one := 1
	mine, err := orders.ListOrders(ctx, core.OrderFilter{CustomerID: &one})
	if err != nil {
		t.Fatalf("ListOrders by customer failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("Customer 1 orders: got %d, want 2", len(mine))
	}

	if _, err := orders.ListOrders(ctx, core.OrderFilter{Status: "invoiced"}); !core.IsValidation(err) {
		t.Errorf("Expected validation error for unknown status filter, got: %v", err)
	}

	// Order numbers come from a shared sequence and never repeat.
	seen := make(map[int]bool)
	for _, o := range all {
		if seen[o.OrderNumber] {
			t.Errorf("Duplicate order number %d", o.OrderNumber)
		}
		seen[o.OrderNumber] = true
	}
}

func TestOrderService_DeleteOpenOrderLeavesNoTrace(t *testing.T) {
	orders, ledger, ctx, closePool := newOrderService(t)
	defer closePool()

	order, err := orders.CreateOrder(ctx, core.OrderInput{
		CustomerID: 1,
		Items: []core.OrderItemInput{
			{ArticleID: 1, Quantity: decimal.NewFromInt(2), UnitPrice: mustDecimal(t, "680.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if err := orders.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder failed: %v", err)
	}

	if _, err := orders.GetOrder(ctx, order.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected not found after delete, got: %v", err)
	}

	// No ledger entries for an order that was never closed.
	entries, err := ledger.EntriesForCustomer(ctx, 1, 10)
	if err != nil {
		t.Fatalf("EntriesForCustomer failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}
