package app

import (
	"github.com/shopspring/decimal"
)

// CreateArticleRequest is the input for creating an article.
type CreateArticleRequest struct {
	Name          string
	Unit          string
	AllowsDecimal bool
	Cost          decimal.Decimal
	Price         decimal.Decimal
	SupplierID    *int
	CategoryID    *int
}

// UpdateArticleRequest is a partial article update; nil fields are left
// unchanged.
type UpdateArticleRequest struct {
	Name          *string
	Unit          *string
	AllowsDecimal *bool
	Cost          *decimal.Decimal
	Price         *decimal.Decimal
	SupplierID    *int
	CategoryID    *int
}

// BulkPriceUpdateRequest applies a percentage change to every active
// article of one category or supplier.
type BulkPriceUpdateRequest struct {
	Target     string // core.BulkTargetCategory or core.BulkTargetSupplier
	TargetID   int
	Percentage decimal.Decimal
}

// CreateCustomerRequest is the input for creating a customer.
type CreateCustomerRequest struct {
	Name           string
	Address        string
	Locality       string
	Phone          string
	OpeningBalance decimal.Decimal
}

// UpdateCustomerRequest is a partial customer update. A non-nil Balance is
// a manual balance adjustment and leaves an adjustment ledger entry.
type UpdateCustomerRequest struct {
	Name     *string
	Address  *string
	Locality *string
	Phone    *string
	Balance  *decimal.Decimal
}

// OrderLineInput is a single line within a create or update order request.
type OrderLineInput struct {
	ArticleID   int
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	ItemStatus  string
}

// CreateOrderRequest is the input for creating a new order.
type CreateOrderRequest struct {
	CustomerID int
	Status     string
	Notes      string
	Lines      []OrderLineInput
}

// UpdateOrderRequest is a partial order update; non-nil Lines fully replace
// the existing item set.
type UpdateOrderRequest struct {
	Notes  *string
	Status *string
	Lines  []OrderLineInput
}

// PackLineInput is a single line within a create or update pack request.
type PackLineInput struct {
	ArticleID    int
	SuggestedQty decimal.Decimal
}

// CreatePackRequest is the input for creating a pack.
type CreatePackRequest struct {
	Name        string
	Description string
	CategoryID  *int
	Lines       []PackLineInput
}

// UpdatePackRequest is a partial pack update; non-nil Lines fully replace
// the existing item list.
type UpdatePackRequest struct {
	Name        *string
	Description *string
	CategoryID  *int
	Lines       []PackLineInput
}
