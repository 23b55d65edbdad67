package app

import (
	"context"

	"distripanel/internal/core"

	"github.com/shopspring/decimal"
)

// ApplicationService is the single interface all adapters (web, CLI) call.
// It decouples presentation from business logic. Implementations must
// contain no display logic of any kind.
type ApplicationService interface {
	// ── Catalog ──────────────────────────────────────────────────────────

	ListArticles(ctx context.Context, filter core.ArticleFilter) ([]core.Article, error)
	GetArticle(ctx context.Context, id int) (*core.Article, error)
	CreateArticle(ctx context.Context, req CreateArticleRequest) (*core.Article, error)
	UpdateArticle(ctx context.Context, id int, req UpdateArticleRequest) (*core.Article, error)
	DeactivateArticle(ctx context.Context, id int) error

	// BulkPriceUpdate applies a percentage price change to every active
	// article of a category or supplier. Returns how many were updated.
	BulkPriceUpdate(ctx context.Context, req BulkPriceUpdateRequest) (int, error)

	ListSuppliers(ctx context.Context) ([]core.Supplier, error)
	CreateSupplier(ctx context.Context, name, phone string) (*core.Supplier, error)
	UpdateSupplier(ctx context.Context, id int, name string) (*core.Supplier, error)
	DeleteSupplier(ctx context.Context, id int) error

	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, name string) (*core.Category, error)
	UpdateCategory(ctx context.Context, id int, name string) (*core.Category, error)
	DeleteCategory(ctx context.Context, id int) error

	// ── Customers & ledger ───────────────────────────────────────────────

	ListCustomers(ctx context.Context, query string) ([]core.Customer, error)
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error)
	// GetCustomer returns the customer with order history and recent
	// current-account movements.
	GetCustomer(ctx context.Context, id int) (*core.CustomerDetail, error)
	UpdateCustomer(ctx context.Context, id int, req UpdateCustomerRequest) (*core.Customer, error)
	DeactivateCustomer(ctx context.Context, id int) error
	RegisterPayment(ctx context.Context, customerID int, amount decimal.Decimal, note string) (*core.LedgerEntry, error)
	FrequentArticles(ctx context.Context, customerID int) ([]core.FrequentArticle, error)

	// ── Orders ───────────────────────────────────────────────────────────

	ListOrders(ctx context.Context, filter core.OrderFilter) ([]core.Order, error)
	GetOrder(ctx context.Context, id int) (*core.Order, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*core.Order, error)
	UpdateOrder(ctx context.Context, id int, req UpdateOrderRequest) (*core.Order, error)
	CloseOrder(ctx context.Context, id int) (*core.Order, error)
	DeleteOrder(ctx context.Context, id int) error

	// ── Packs ────────────────────────────────────────────────────────────

	ListPacks(ctx context.Context) ([]core.Pack, error)
	GetPack(ctx context.Context, id int) (*core.Pack, error)
	CreatePack(ctx context.Context, req CreatePackRequest) (*core.Pack, error)
	UpdatePack(ctx context.Context, id int, req UpdatePackRequest) (*core.Pack, error)
	DeletePack(ctx context.Context, id int) error

	// ── Logistics ────────────────────────────────────────────────────────

	Consolidate(ctx context.Context, orderIDs []int, mode string) ([]core.ConsolidationGroup, error)

	// VerifyLedger re-checks the balance == Σ entries invariant for every
	// customer. Used by the verify tool, handy from the CLI too.
	VerifyLedger(ctx context.Context) ([]core.Inconsistency, error)
}
