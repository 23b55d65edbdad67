package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"distripanel/internal/app"
	"distripanel/internal/core"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:] — the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	switch args[0] {
	case "bal", "balances":
		customers, err := svc.ListCustomers(ctx, "")
		if err != nil {
			log.Fatalf("Failed to list customers: %v", err)
		}
		printBalances(customers)

	case "statement", "st":
		if len(args) < 2 {
			log.Fatal("Usage: app statement <customer-id>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid customer id: %s", args[1])
		}
		detail, err := svc.GetCustomer(ctx, id)
		if err != nil {
			log.Fatalf("Failed to load customer: %v", err)
		}
		printStatement(detail)

	case "consolidate", "con":
		if len(args) < 2 {
			log.Fatal("Usage: app consolidate <order-id>[,<order-id>...] [customer|category]")
		}
		var ids []int
		for _, raw := range strings.Split(args[1], ",") {
			id, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				log.Fatalf("Invalid order id: %s", raw)
			}
			ids = append(ids, id)
		}
		mode := core.GroupByCustomer
		if len(args) > 2 {
			mode = args[2]
		}
		groups, err := svc.Consolidate(ctx, ids, mode)
		if err != nil {
			log.Fatalf("Consolidation failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(groups)

	case "verify", "ver":
		inconsistencies, err := svc.VerifyLedger(ctx)
		if err != nil {
			log.Fatalf("Verification failed: %v", err)
		}
		if len(inconsistencies) == 0 {
			fmt.Println("Ledger is consistent.")
			return
		}
		for _, inc := range inconsistencies {
			fmt.Printf("MISMATCH customer %d (%s): balance=%s ledger=%s\n",
				inc.CustomerID, inc.Name, inc.Balance.StringFixed(2), inc.LedgerSum.StringFixed(2))
		}
		os.Exit(1)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: balances, statement, consolidate, verify", args[0])
	}
}

func printBalances(customers []core.Customer) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-58s\n", "CUSTOMER BALANCES")
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-6s %-35s %15s\n", "ID", "NAME", "BALANCE")
	fmt.Println(strings.Repeat("-", 62))
	for _, c := range customers {
		fmt.Printf("  %-6d %-35s %15s\n", c.ID, c.Name, c.Balance.StringFixed(2))
	}
	fmt.Println(strings.Repeat("=", 62))
}

func printStatement(detail *core.CustomerDetail) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  %s — %s, %s\n", detail.Name, detail.Address, detail.Locality)
	fmt.Printf("  Balance: %s\n", detail.Balance.StringFixed(2))
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  %-12s %-12s %15s  %s\n", "DATE", "KIND", "AMOUNT", "DESCRIPTION")
	fmt.Println(strings.Repeat("-", 72))
	for _, m := range detail.Movements {
		fmt.Printf("  %-12s %-12s %15s  %s\n",
			m.CreatedAt.Format("2006-01-02"), m.Kind, m.Amount.StringFixed(2), m.Description)
	}
	fmt.Println(strings.Repeat("=", 72))
}
