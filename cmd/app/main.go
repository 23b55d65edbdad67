package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"distripanel/internal/adapters/cli"
	"distripanel/internal/app"
	"distripanel/internal/core"
	"distripanel/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: app <command> [args]")
		fmt.Fprintln(os.Stderr, "Commands: balances, statement <customer-id>, consolidate <ids> [mode], verify")
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	ledger := core.NewLedger(pool)
	svc := app.NewAppService(
		pool,
		ledger,
		core.NewCatalogService(pool),
		core.NewCustomerService(pool, ledger),
		core.NewOrderService(pool, ledger),
		core.NewPackService(pool),
		core.NewReportingService(pool),
	)

	cli.Run(ctx, svc, os.Args[1:])
}
