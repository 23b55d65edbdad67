package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// recentMovements is how many ledger entries the customer detail view carries.
const recentMovements = 20

// CustomerInput is the input for creating a customer. A non-zero
// OpeningBalance is posted as an adjustment entry so the ledger explains it.
type CustomerInput struct {
	Name           string
	Address        string
	Locality       string
	Phone          string
	OpeningBalance decimal.Decimal
}

// CustomerPatch is a partial update; nil fields are left unchanged.
// A non-nil Balance overwrites the stored balance and appends an adjustment
// entry for the delta.
type CustomerPatch struct {
	Name     *string
	Address  *string
	Locality *string
	Phone    *string
	Balance  *decimal.Decimal
}

// CustomerDetail is a customer with their order history and most recent
// current-account movements.
type CustomerDetail struct {
	Customer
	Orders    []Order       `json:"orders"`
	Movements []LedgerEntry `json:"movements"`
}

// CustomerService manages customers and the two manual write paths into
// their balances: payment registration and direct balance adjustment.
type CustomerService interface {
	ListCustomers(ctx context.Context, query string) ([]Customer, error)
	CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error)
	GetCustomerDetail(ctx context.Context, id int) (*CustomerDetail, error)
	UpdateCustomer(ctx context.Context, id int, patch CustomerPatch) (*Customer, error)
	DeactivateCustomer(ctx context.Context, id int) error
	// RegisterPayment decrements the balance by amount (a payment always
	// reduces debt or builds credit) and appends a payment entry for
	// −amount. Non-positive amounts are rejected.
	RegisterPayment(ctx context.Context, customerID int, amount decimal.Decimal, note string) (*LedgerEntry, error)
}

type customerService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

func NewCustomerService(pool *pgxpool.Pool, ledger *Ledger) CustomerService {
	return &customerService{pool: pool, ledger: ledger}
}

const customerColumns = "id, name, address, locality, phone, balance, is_active, created_at"

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Locality, &c.Phone, &c.Balance, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *customerService) ListCustomers(ctx context.Context, query string) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE is_active = true AND ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
	`, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (s *customerService) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	if input.Name == "" {
		return nil, validationf("customer name is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO customers (name, address, locality, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, input.Name, input.Address, input.Locality, input.Phone).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	if !input.OpeningBalance.IsZero() {
		if _, err := s.ledger.AppendTx(ctx, tx, id, nil, EntryAdjustment, input.OpeningBalance, "Opening balance"); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit customer creation: %w", err)
	}
	return s.getCustomer(ctx, id)
}

func (s *customerService) getCustomer(ctx context.Context, id int) (*Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", id, err)
	}
	return c, nil
}

func (s *customerService) GetCustomerDetail(ctx context.Context, id int) (*CustomerDetail, error) {
	c, err := s.getCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	orders, err := loadOrders(ctx, s.pool, "o.customer_id = $1", id)
	if err != nil {
		return nil, err
	}
	movements, err := s.ledger.EntriesForCustomer(ctx, id, recentMovements)
	if err != nil {
		return nil, err
	}

	return &CustomerDetail{Customer: *c, Orders: orders, Movements: movements}, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id int, patch CustomerPatch) (*Customer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the row so the adjustment delta is computed against a stable balance.
	var current decimal.Decimal
	err = tx.QueryRow(ctx, "SELECT balance FROM customers WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", id, err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE customers SET
			name = COALESCE($2, name),
			address = COALESCE($3, address),
			locality = COALESCE($4, locality),
			phone = COALESCE($5, phone)
		WHERE id = $1
	`, id, patch.Name, patch.Address, patch.Locality, patch.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer %d: %w", id, err)
	}

	if patch.Balance != nil {
		delta := patch.Balance.Sub(current)
		if _, err := s.ledger.AppendTx(ctx, tx, id, nil, EntryAdjustment, delta, "Manual balance adjustment"); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit customer update: %w", err)
	}
	return s.getCustomer(ctx, id)
}

func (s *customerService) DeactivateCustomer(ctx context.Context, id int) error {
	ct, err := s.pool.Exec(ctx, "UPDATE customers SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate customer %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *customerService) RegisterPayment(ctx context.Context, customerID int, amount decimal.Decimal, note string) (*LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, validationf("payment amount must be positive")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int
	err = tx.QueryRow(ctx, "SELECT id FROM customers WHERE id = $1 FOR UPDATE", customerID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", customerID, err)
	}

	description := "Payment received"
	if note != "" {
		description += ": " + note
	}
	entry, err := s.ledger.AppendTx(ctx, tx, customerID, nil, EntryPayment, amount.Neg(), description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return entry, nil
}
