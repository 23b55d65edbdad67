package core_test

import (
	"context"
	"os"
	"testing"

	"distripanel/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB. RESTART IDENTITY makes the seeded ids
	// deterministic: articles 1-3, customers 1-2, supplier 1, categories 1-2.
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE pack_items, packs, ledger_entries, order_items, orders,
			articles, customers, categories, suppliers RESTART IDENTITY CASCADE;
		ALTER SEQUENCE order_number_seq RESTART WITH 1;

		INSERT INTO suppliers (name, phone) VALUES ('Molinos del Sur', '11-4555-0101');

		INSERT INTO categories (name) VALUES ('Dry goods'), ('Cold chain');

		INSERT INTO articles (name, unit, allows_decimal, cost, price, supplier_id, category_id) VALUES
		('Flour 000 1kg', 'unit', FALSE, 450.00,  680.00, 1, 1),
		('Ground beef',   'kg',   TRUE, 3800.00, 5500.00, NULL, 2),
		('Bleach 1L',     'unit', FALSE,  600.00,  950.00, NULL, NULL);

		INSERT INTO customers (name, address, locality, phone) VALUES
		('Almacen Dona Rosa', 'Av. Mitre 1420', 'Avellaneda', '11-4666-0201'),
		('Kiosco El Paso',    'Belgrano 355',   'Quilmes',    '11-4666-0202');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func dbBalance(t *testing.T, pool *pgxpool.Pool, customerID int) decimal.Decimal {
	t.Helper()
	var balance decimal.Decimal
	err := pool.QueryRow(context.Background(),
		"SELECT balance FROM customers WHERE id = $1", customerID).Scan(&balance)
	if err != nil {
		t.Fatalf("Failed to read balance for customer %d: %v", customerID, err)
	}
	return balance
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Bad decimal literal %q: %v", s, err)
	}
	return d
}

// Walks a customer account through its whole life: opening balance, an order
// charged on close, a payment, a manual adjustment, and finally deletion of
// the closed order. After every step the stored balance must equal the sum
// of the ledger entries.
func TestLedger_AccountLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	ledger := core.NewLedger(pool)
	customers := core.NewCustomerService(pool, ledger)
	orders := core.NewOrderService(pool, ledger)

	customer, err := customers.CreateCustomer(ctx, core.CustomerInput{
		Name:           "Despensa Lucia",
		Locality:       "Berazategui",
		OpeningBalance: mustDecimal(t, "1000.00"),
	})
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}
	if !customer.Balance.Equal(mustDecimal(t, "1000.00")) {
		t.Fatalf("Opening balance: got %s, want 1000.00", customer.Balance)
	}

	// 10 × 680 + 2.5 × 5500 × 0.9 = 6800 + 12375 = 19175
	order, err := orders.CreateOrder(ctx, core.OrderInput{
		CustomerID: customer.ID,
		Items: []core.OrderItemInput{
			{ArticleID: 1, Quantity: decimal.NewFromInt(10), UnitPrice: mustDecimal(t, "680.00")},
			{ArticleID: 2, Quantity: mustDecimal(t, "2.5"), UnitPrice: mustDecimal(t, "5500.00"), DiscountPct: decimal.NewFromInt(10)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if !order.Total.Equal(mustDecimal(t, "19175.00")) {
		t.Fatalf("Order total: got %s, want 19175.00", order.Total)
	}
	if !order.PriorBalance.Equal(mustDecimal(t, "1000.00")) {
		t.Fatalf("Prior balance: got %s, want 1000.00", order.PriorBalance)
	}

	closed, err := orders.CloseOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("CloseOrder failed: %v", err)
	}
	if closed.Status != core.OrderClosed || closed.ClosedAt == nil {
		t.Fatalf("Close did not stamp the order: status=%s closedAt=%v", closed.Status, closed.ClosedAt)
	}
	if got := dbBalance(t, pool, customer.ID); !got.Equal(mustDecimal(t, "20175.00")) {
		t.Fatalf("Balance after close: got %s, want 20175.00", got)
	}

	if _, err := customers.RegisterPayment(ctx, customer.ID, mustDecimal(t, "5000.00"), "cash"); err != nil {
		t.Fatalf("RegisterPayment failed: %v", err)
	}
	if got := dbBalance(t, pool, customer.ID); !got.Equal(mustDecimal(t, "15175.00")) {
		t.Fatalf("Balance after payment: got %s, want 15175.00", got)
	}

	target := mustDecimal(t, "15000.00")
	if _, err := customers.UpdateCustomer(ctx, customer.ID, core.CustomerPatch{Balance: &target}); err != nil {
		t.Fatalf("Manual adjustment failed: %v", err)
	}
	if got := dbBalance(t, pool, customer.ID); !got.Equal(target) {
		t.Fatalf("Balance after adjustment: got %s, want 15000.00", got)
	}

	if err := orders.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder failed: %v", err)
	}
	if got := dbBalance(t, pool, customer.ID); !got.Equal(mustDecimal(t, "-4175.00")) {
		t.Fatalf("Balance after reversal: got %s, want -4175.00", got)
	}

	// Reversal entries must survive the order deletion, orphaned.
	var orphaned int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM ledger_entries
		WHERE customer_id = $1 AND order_id IS NULL AND kind IN ($2, $3)`,
		customer.ID, core.EntryCharge, core.EntryReversal).Scan(&orphaned)
	if err != nil {
		t.Fatalf("Failed to count orphaned entries: %v", err)
	}
	if orphaned != 2 {
		t.Errorf("Orphaned charge/reversal entries: got %d, want 2", orphaned)
	}

	inconsistencies, err := ledger.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("CheckConsistency failed: %v", err)
	}
	if len(inconsistencies) != 0 {
		t.Errorf("Expected a consistent ledger, got %d mismatches: %+v", len(inconsistencies), inconsistencies)
	}
}

func TestLedger_EveryEntryIsExplained(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	ledger := core.NewLedger(pool)
	customers := core.NewCustomerService(pool, ledger)

	customer, err := customers.CreateCustomer(ctx, core.CustomerInput{
		Name:           "Kiosco 24",
		OpeningBalance: mustDecimal(t, "-250.00"), // starts with credit
	})
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}

	entries, err := ledger.EntriesForCustomer(ctx, customer.ID, 10)
	if err != nil {
		t.Fatalf("EntriesForCustomer failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected exactly one opening entry, got %d", len(entries))
	}
	if entries[0].Kind != core.EntryAdjustment {
		t.Errorf("Opening entry kind: got %s, want %s", entries[0].Kind, core.EntryAdjustment)
	}
	if !entries[0].Amount.Equal(mustDecimal(t, "-250.00")) {
		t.Errorf("Opening entry amount: got %s, want -250.00", entries[0].Amount)
	}
}

func TestLedger_DetectsTamperedBalance(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	ledger := core.NewLedger(pool)

	// Seeded customer 1 has no entries; force a balance drift past the API.
	_, err := pool.Exec(ctx, "UPDATE customers SET balance = 99.99 WHERE id = 1")
	if err != nil {
		t.Fatalf("Failed to tamper with balance: %v", err)
	}

	inconsistencies, err := ledger.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("CheckConsistency failed: %v", err)
	}
	if len(inconsistencies) != 1 {
		t.Fatalf("Expected one mismatch, got %d", len(inconsistencies))
	}
	if inconsistencies[0].CustomerID != 1 {
		t.Errorf("Mismatch customer: got %d, want 1", inconsistencies[0].CustomerID)
	}
}
