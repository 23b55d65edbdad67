package core_test

import (
	"context"
	"errors"
	"testing"

	"distripanel/internal/core"

	"github.com/shopspring/decimal"
)

func TestCustomerService_SearchAndSoftDelete(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	ledger := core.NewLedger(pool)
	customers := core.NewCustomerService(pool, ledger)

	found, err := customers.ListCustomers(ctx, "kiosco")
	if err != nil {
		t.Fatalf("ListCustomers failed: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Kiosco El Paso" {
		t.Fatalf("Search 'kiosco': got %+v", found)
	}

	if err := customers.DeactivateCustomer(ctx, found[0].ID); err != nil {
		t.Fatalf("DeactivateCustomer failed: %v", err)
	}

	// Deactivated customers drop out of listings but keep their row.
	after, err := customers.ListCustomers(ctx, "kiosco")
	if err != nil {
		t.Fatalf("ListCustomers failed: %v", err)
	}
	if len(after) != 0 {
		t.Errorf("Deactivated customer still listed: %+v", after)
	}

	var exists bool
	err = pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)", found[0].ID).Scan(&exists)
	if err != nil {
		t.Fatalf("Row check failed: %v", err)
	}
	if !exists {
		t.Error("Deactivation must not delete the row")
	}
}

func TestCustomerService_PaymentValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	customers := core.NewCustomerService(pool, core.NewLedger(pool))

	if _, err := customers.RegisterPayment(ctx, 1, decimal.Zero, ""); !core.IsValidation(err) {
		t.Errorf("Expected validation error for zero payment, got: %v", err)
	}
	if _, err := customers.RegisterPayment(ctx, 1, mustDecimal(t, "-50.00"), ""); !core.IsValidation(err) {
		t.Errorf("Expected validation error for negative payment, got: %v", err)
	}
	if _, err := customers.RegisterPayment(ctx, 9999, mustDecimal(t, "50.00"), ""); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected not found for unknown customer, got: %v", err)
	}
}

// A payment always decrements the balance, past zero into credit if needed.
func TestCustomerService_OverpaymentBuildsCredit(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	ledger := core.NewLedger(pool)
	customers := core.NewCustomerService(pool, ledger)

	customer, err := customers.CreateCustomer(ctx, core.CustomerInput{
		Name:           "Parrilla El Rincon",
		OpeningBalance: mustDecimal(t, "300.00"),
	})
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}

	entry, err := customers.RegisterPayment(ctx, customer.ID, mustDecimal(t, "500.00"), "cash advance")
	if err != nil {
		t.Fatalf("RegisterPayment failed: %v", err)
	}
	if entry.Kind != core.EntryPayment {
		t.Errorf("Entry kind: got %s, want %s", entry.Kind, core.EntryPayment)
	}
	if !entry.Amount.Equal(mustDecimal(t, "-500.00")) {
		t.Errorf("Entry amount: got %s, want -500.00", entry.Amount)
	}

	if got := dbBalance(t, pool, customer.ID); !got.Equal(mustDecimal(t, "-200.00")) {
		t.Errorf("Balance after overpayment: got %s, want -200.00", got)
	}
}

func TestCustomerService_DetailIncludesHistory(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	ledger := core.NewLedger(pool)
	customers := core.NewCustomerService(pool, ledger)
	orders := core.NewOrderService(pool, ledger)

	order, err := orders.CreateOrder(ctx, core.OrderInput{
		CustomerID: 1,
		Items: []core.OrderItemInput{
			{ArticleID: 1, Quantity: decimal.NewFromInt(6), UnitPrice: mustDecimal(t, "680.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if _, err := orders.CloseOrder(ctx, order.ID); err != nil {
		t.Fatalf("CloseOrder failed: %v", err)
	}
	if _, err := customers.RegisterPayment(ctx, 1, mustDecimal(t, "1000.00"), ""); err != nil {
		t.Fatalf("RegisterPayment failed: %v", err)
	}

	detail, err := customers.GetCustomerDetail(ctx, 1)
	if err != nil {
		t.Fatalf("GetCustomerDetail failed: %v", err)
	}
	if len(detail.Orders) != 1 {
		t.Errorf("Detail orders: got %d, want 1", len(detail.Orders))
	}
	if len(detail.Movements) != 2 {
		t.Fatalf("Detail movements: got %d, want 2", len(detail.Movements))
	}
	// Newest first.
	if detail.Movements[0].Kind != core.EntryPayment {
		t.Errorf("Most recent movement: got %s, want %s", detail.Movements[0].Kind, core.EntryPayment)
	}
	if !detail.Balance.Equal(mustDecimal(t, "3080.00")) {
		t.Errorf("Balance: got %s, want 3080.00", detail.Balance)
	}
}

func TestCustomerService_PartialUpdateKeepsOtherFields(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	customers := core.NewCustomerService(pool, core.NewLedger(pool))

	phone := "11-4777-0300"
	updated, err := customers.UpdateCustomer(ctx, 1, core.CustomerPatch{Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateCustomer failed: %v", err)
	}
	if updated.Phone != phone {
		t.Errorf("Phone: got %q, want %q", updated.Phone, phone)
	}
	if updated.Name != "Almacen Dona Rosa" {
		t.Errorf("Name must be untouched, got %q", updated.Name)
	}

	// No balance in the patch means no ledger entry.
	entries, err := core.NewLedger(pool).EntriesForCustomer(ctx, 1, 10)
	if err != nil {
		t.Fatalf("EntriesForCustomer failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries after a plain field update, got %d", len(entries))
	}
}
