package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "distripanel/internal/adapters/web"
	"distripanel/internal/app"
	"distripanel/internal/core"
	"distripanel/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	ledger := core.NewLedger(pool)
	catalogService := core.NewCatalogService(pool)
	customerService := core.NewCustomerService(pool, ledger)
	orderService := core.NewOrderService(pool, ledger)
	packService := core.NewPackService(pool)
	reportingService := core.NewReportingService(pool)

	svc := app.NewAppService(pool, ledger, catalogService, customerService, orderService, packService, reportingService)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
