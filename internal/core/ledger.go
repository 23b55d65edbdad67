package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Ledger records current-account movements. Every write to a customer's
// balance anywhere in the system goes through AppendTx, so the stored
// balance and the entry trail cannot diverge: one balance mutation, one
// entry, one transaction.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// AppendTx inserts one ledger entry and applies its signed amount to the
// customer's balance inside the caller's transaction. The caller is
// expected to hold a row lock on the customer (SELECT ... FOR UPDATE) when
// the surrounding operation is state-dependent.
func (l *Ledger) AppendTx(ctx context.Context, tx pgx.Tx, customerID int, orderID *int, kind string, amount decimal.Decimal, description string) (*LedgerEntry, error) {
	var e LedgerEntry
	err := tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (customer_id, order_id, kind, amount, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, customer_id, order_id, kind, amount, description, created_at
	`, customerID, orderID, kind, amount, description).Scan(
		&e.ID, &e.CustomerID, &e.OrderID, &e.Kind, &e.Amount, &e.Description, &e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	ct, err := tx.Exec(ctx,
		"UPDATE customers SET balance = balance + $1 WHERE id = $2",
		amount, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to apply entry to balance: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}
	return &e, nil
}

// EntriesForCustomer returns the customer's most recent movements, newest
// first. limit <= 0 means no limit.
func (l *Ledger) EntriesForCustomer(ctx context.Context, customerID, limit int) ([]LedgerEntry, error) {
	query := `
		SELECT id, customer_id, order_id, kind, amount, description, created_at
		FROM ledger_entries
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`
	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = l.pool.Query(ctx, query+" LIMIT $2", customerID, limit)
	} else {
		rows, err = l.pool.Query(ctx, query, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.OrderID, &e.Kind, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Inconsistency is one customer whose stored balance disagrees with the sum
// of their ledger entries.
type Inconsistency struct {
	CustomerID int
	Name       string
	Balance    decimal.Decimal
	LedgerSum  decimal.Decimal
}

// CheckConsistency returns every customer violating the
// balance == Σ entries.amount invariant. An empty result means the ledger
// explains every stored balance.
func (l *Ledger) CheckConsistency(ctx context.Context) ([]Inconsistency, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT c.id, c.name, c.balance, COALESCE(SUM(e.amount), 0) AS ledger_sum
		FROM customers c
		LEFT JOIN ledger_entries e ON e.customer_id = c.id
		GROUP BY c.id, c.name, c.balance
		HAVING c.balance <> COALESCE(SUM(e.amount), 0)
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance consistency: %w", err)
	}
	defer rows.Close()

	var out []Inconsistency
	for rows.Next() {
		var inc Inconsistency
		if err := rows.Scan(&inc.CustomerID, &inc.Name, &inc.Balance, &inc.LedgerSum); err != nil {
			return nil, fmt.Errorf("failed to scan inconsistency: %w", err)
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}
