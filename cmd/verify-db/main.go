package main

import (
	"context"
	"log"
	"os"

	"distripanel/internal/core"
	"distripanel/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Re-checks the stored invariants: every customer balance must equal the sum
// of their ledger entries, and every order total must equal the sum of its
// line totals. Exits non-zero if anything is off.
func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	failed := false

	ledger := core.NewLedger(pool)
	inconsistencies, err := ledger.CheckConsistency(ctx)
	if err != nil {
		log.Fatalf("[LEDGER] check failed: %v", err)
	}
	if len(inconsistencies) == 0 {
		log.Println("[LEDGER] OK: every balance matches its ledger")
	} else {
		failed = true
		for _, inc := range inconsistencies {
			log.Printf("[LEDGER] MISMATCH customer %d (%s): balance=%s ledger=%s",
				inc.CustomerID, inc.Name, inc.Balance, inc.LedgerSum)
		}
	}

	if !checkOrderTotals(ctx, pool) {
		failed = true
	}

	if failed {
		os.Exit(1)
	}
	log.Println("[DONE] all invariants hold")
}

// checkOrderTotals recomputes each order total from its lines and compares
// it to the stored value. Rounding happens per line, matching the writers.
func checkOrderTotals(ctx context.Context, pool *pgxpool.Pool) bool {
	rows, err := pool.Query(ctx, `
		SELECT o.id, o.order_number, o.total,
		       oi.quantity, oi.unit_price, oi.discount_pct
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		ORDER BY o.id`)
	if err != nil {
		log.Fatalf("[ORDERS] query failed: %v", err)
	}
	defer rows.Close()

	stored := make(map[int]decimal.Decimal)
	computed := make(map[int]decimal.Decimal)
	numbers := make(map[int]int)
	var ids []int

	for rows.Next() {
		var (
			id, number int
			total      decimal.Decimal
			qty        *decimal.Decimal
			price      *decimal.Decimal
			disc       *decimal.Decimal
		)
		if err := rows.Scan(&id, &number, &total, &qty, &price, &disc); err != nil {
			log.Fatalf("[ORDERS] scan failed: %v", err)
		}
		if _, seen := stored[id]; !seen {
			stored[id] = total
			computed[id] = decimal.Zero
			numbers[id] = number
			ids = append(ids, id)
		}
		if qty != nil {
			computed[id] = computed[id].Add(core.LineTotal(*qty, *price, *disc))
		}
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[ORDERS] rows: %v", err)
	}

	ok := true
	for _, id := range ids {
		if !stored[id].Equal(computed[id]) {
			ok = false
			log.Printf("[ORDERS] MISMATCH order #%d: stored=%s computed=%s",
				numbers[id], stored[id], computed[id])
		}
	}
	if ok {
		log.Println("[ORDERS] OK: every total matches its lines")
	}
	return ok
}
