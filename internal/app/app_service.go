package app

import (
	"context"

	"distripanel/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type appService struct {
	pool      *pgxpool.Pool
	ledger    *core.Ledger
	catalog   core.CatalogService
	customers core.CustomerService
	orders    core.OrderService
	packs     core.PackService
	reporting core.ReportingService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	ledger *core.Ledger,
	catalog core.CatalogService,
	customers core.CustomerService,
	orders core.OrderService,
	packs core.PackService,
	reporting core.ReportingService,
) ApplicationService {
	return &appService{
		pool:      pool,
		ledger:    ledger,
		catalog:   catalog,
		customers: customers,
		orders:    orders,
		packs:     packs,
		reporting: reporting,
	}
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (s *appService) ListArticles(ctx context.Context, filter core.ArticleFilter) ([]core.Article, error) {
	return s.catalog.ListArticles(ctx, filter)
}

func (s *appService) GetArticle(ctx context.Context, id int) (*core.Article, error) {
	return s.catalog.GetArticle(ctx, id)
}

func (s *appService) CreateArticle(ctx context.Context, req CreateArticleRequest) (*core.Article, error) {
	return s.catalog.CreateArticle(ctx, core.ArticleInput{
		Name:          req.Name,
		Unit:          req.Unit,
		AllowsDecimal: req.AllowsDecimal,
		Cost:          req.Cost,
		Price:         req.Price,
		SupplierID:    req.SupplierID,
		CategoryID:    req.CategoryID,
	})
}

func (s *appService) UpdateArticle(ctx context.Context, id int, req UpdateArticleRequest) (*core.Article, error) {
	return s.catalog.UpdateArticle(ctx, id, core.ArticlePatch{
		Name:          req.Name,
		Unit:          req.Unit,
		AllowsDecimal: req.AllowsDecimal,
		Cost:          req.Cost,
		Price:         req.Price,
		SupplierID:    req.SupplierID,
		CategoryID:    req.CategoryID,
	})
}

func (s *appService) DeactivateArticle(ctx context.Context, id int) error {
	return s.catalog.DeactivateArticle(ctx, id)
}

func (s *appService) BulkPriceUpdate(ctx context.Context, req BulkPriceUpdateRequest) (int, error) {
	return s.catalog.BulkPriceUpdate(ctx, req.Target, req.TargetID, req.Percentage)
}

func (s *appService) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	return s.catalog.ListSuppliers(ctx)
}

func (s *appService) CreateSupplier(ctx context.Context, name, phone string) (*core.Supplier, error) {
	return s.catalog.CreateSupplier(ctx, name, phone)
}

func (s *appService) UpdateSupplier(ctx context.Context, id int, name string) (*core.Supplier, error) {
	return s.catalog.UpdateSupplier(ctx, id, name)
}

func (s *appService) DeleteSupplier(ctx context.Context, id int) error {
	return s.catalog.DeleteSupplier(ctx, id)
}

func (s *appService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.catalog.ListCategories(ctx)
}

func (s *appService) CreateCategory(ctx context.Context, name string) (*core.Category, error) {
	return s.catalog.CreateCategory(ctx, name)
}

func (s *appService) UpdateCategory(ctx context.Context, id int, name string) (*core.Category, error) {
	return s.catalog.UpdateCategory(ctx, id, name)
}

func (s *appService) DeleteCategory(ctx context.Context, id int) error {
	return s.catalog.DeleteCategory(ctx, id)
}

// ── Customers & ledger ───────────────────────────────────────────────────────

func (s *appService) ListCustomers(ctx context.Context, query string) ([]core.Customer, error) {
	return s.customers.ListCustomers(ctx, query)
}

func (s *appService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error) {
	return s.customers.CreateCustomer(ctx, core.CustomerInput{
		Name:           req.Name,
		Address:        req.Address,
		Locality:       req.Locality,
		Phone:          req.Phone,
		OpeningBalance: req.OpeningBalance,
	})
}

func (s *appService) GetCustomer(ctx context.Context, id int) (*core.CustomerDetail, error) {
	return s.customers.GetCustomerDetail(ctx, id)
}

func (s *appService) UpdateCustomer(ctx context.Context, id int, req UpdateCustomerRequest) (*core.Customer, error) {
	return s.customers.UpdateCustomer(ctx, id, core.CustomerPatch{
		Name:     req.Name,
		Address:  req.Address,
		Locality: req.Locality,
		Phone:    req.Phone,
		Balance:  req.Balance,
	})
}

func (s *appService) DeactivateCustomer(ctx context.Context, id int) error {
	return s.customers.DeactivateCustomer(ctx, id)
}

func (s *appService) RegisterPayment(ctx context.Context, customerID int, amount decimal.Decimal, note string) (*core.LedgerEntry, error) {
	return s.customers.RegisterPayment(ctx, customerID, amount, note)
}

func (s *appService) FrequentArticles(ctx context.Context, customerID int) ([]core.FrequentArticle, error) {
	return s.reporting.FrequentArticles(ctx, customerID)
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (s *appService) ListOrders(ctx context.Context, filter core.OrderFilter) ([]core.Order, error) {
	return s.orders.ListOrders(ctx, filter)
}

func (s *appService) GetOrder(ctx context.Context, id int) (*core.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*core.Order, error) {
	return s.orders.CreateOrder(ctx, core.OrderInput{
		CustomerID: req.CustomerID,
		Status:     req.Status,
		Notes:      req.Notes,
		Items:      toItemInputs(req.Lines),
	})
}

func (s *appService) UpdateOrder(ctx context.Context, id int, req UpdateOrderRequest) (*core.Order, error) {
	patch := core.OrderPatch{Notes: req.Notes, Status: req.Status}
	if req.Lines != nil {
		patch.Items = toItemInputs(req.Lines)
	}
	return s.orders.UpdateOrder(ctx, id, patch)
}

func (s *appService) CloseOrder(ctx context.Context, id int) (*core.Order, error) {
	return s.orders.CloseOrder(ctx, id)
}

func (s *appService) DeleteOrder(ctx context.Context, id int) error {
	return s.orders.DeleteOrder(ctx, id)
}

func toItemInputs(lines []OrderLineInput) []core.OrderItemInput {
	items := make([]core.OrderItemInput, len(lines))
	for i, l := range lines {
		items[i] = core.OrderItemInput{
			ArticleID:   l.ArticleID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			ItemStatus:  l.ItemStatus,
		}
	}
	return items
}

// ── Packs ────────────────────────────────────────────────────────────────────

func (s *appService) ListPacks(ctx context.Context) ([]core.Pack, error) {
	return s.packs.ListPacks(ctx)
}

func (s *appService) GetPack(ctx context.Context, id int) (*core.Pack, error) {
	return s.packs.GetPack(ctx, id)
}

func (s *appService) CreatePack(ctx context.Context, req CreatePackRequest) (*core.Pack, error) {
	return s.packs.CreatePack(ctx, core.PackInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Items:       toPackItemInputs(req.Lines),
	})
}

func (s *appService) UpdatePack(ctx context.Context, id int, req UpdatePackRequest) (*core.Pack, error) {
	patch := core.PackPatch{Name: req.Name, Description: req.Description, CategoryID: req.CategoryID}
	if req.Lines != nil {
		patch.Items = toPackItemInputs(req.Lines)
	}
	return s.packs.UpdatePack(ctx, id, patch)
}

func (s *appService) DeletePack(ctx context.Context, id int) error {
	return s.packs.DeletePack(ctx, id)
}

func toPackItemInputs(lines []PackLineInput) []core.PackItemInput {
	items := make([]core.PackItemInput, len(lines))
	for i, l := range lines {
		items[i] = core.PackItemInput{ArticleID: l.ArticleID, SuggestedQty: l.SuggestedQty}
	}
	return items
}

// ── Logistics & verification ─────────────────────────────────────────────────

func (s *appService) Consolidate(ctx context.Context, orderIDs []int, mode string) ([]core.ConsolidationGroup, error) {
	return s.reporting.Consolidate(ctx, orderIDs, mode)
}

func (s *appService) VerifyLedger(ctx context.Context) ([]core.Inconsistency, error) {
	return s.ledger.CheckConsistency(ctx)
}
