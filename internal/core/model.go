package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle states. An order moves pending → assembled → closed;
// there is no transition out of closed.
const (
	OrderPending   = "pending"
	OrderAssembled = "assembled"
	OrderClosed    = "closed"
)

// Ledger entry kinds. Amounts are signed: a charge is positive, a payment
// and a reversal are negative, an adjustment carries the delta between the
// old and the new balance.
const (
	EntryCharge     = "charge"
	EntryPayment    = "payment"
	EntryAdjustment = "adjustment"
	EntryReversal   = "reversal"
)

// Item-level status tags on order items. The empty string means "no tag".
const (
	ItemDelivered = "delivered"
	ItemExchange  = "exchange"
	ItemReturn    = "return"
)

// ErrNotFound marks lookups whose target row does not exist.
// The web adapter maps it to HTTP 404.
var ErrNotFound = errors.New("not found")

// ValidationError marks a caller mistake (missing field, bad amount,
// illegal state transition). The web adapter maps it to HTTP 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether a ValidationError appears anywhere in err's chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Supplier is a goods supplier master record.
type Supplier struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Category groups articles and packs for filtering and bulk price updates.
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Article is a sellable product. Articles are never hard-deleted; IsActive
// is flipped instead so historical order items keep their reference.
type Article struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	AllowsDecimal  bool            `json:"allows_decimal"`
	Cost           decimal.Decimal `json:"cost"`
	Price          decimal.Decimal `json:"price"`
	PriceChangedAt time.Time       `json:"price_changed_at"`
	IsActive       bool            `json:"is_active"`
	SupplierID     *int            `json:"supplier_id,omitempty"`
	SupplierName   string          `json:"supplier_name,omitempty"` // joined from suppliers
	CategoryID     *int            `json:"category_id,omitempty"`
	CategoryName   string          `json:"category_name,omitempty"` // joined from categories
	CreatedAt      time.Time       `json:"created_at"`
}

// Customer is a buyer with a running current-account balance.
// Balance is signed: positive means the customer owes money, negative means
// they have credit in their favor. The stored balance is the source of
// truth; ledger entries are the explanatory trail, and the two must agree.
type Customer struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Locality  string          `json:"locality"`
	Phone     string          `json:"phone"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// LedgerEntry is an append-only record of one balance-affecting event.
// OrderID is nullable: entries survive the deletion of the order they
// reference, with the reference cleared.
type LedgerEntry struct {
	ID          int             `json:"id"`
	CustomerID  int             `json:"customer_id"`
	OrderID     *int            `json:"order_id,omitempty"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Pack is a named bundle of (article, suggested quantity) pairs, used both
// as a physical kit definition and as a saved price-list selection.
type Pack struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	CategoryID   *int       `json:"category_id,omitempty"`
	CategoryName string     `json:"category_name,omitempty"` // joined from categories
	Items        []PackItem `json:"items"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PackItem is one line of a pack. ArticleActive is joined in so clients can
// filter out lines whose article has since been deactivated; the dangling
// reference itself is tolerated.
type PackItem struct {
	ID            int             `json:"id"`
	PackID        int             `json:"pack_id"`
	ArticleID     int             `json:"article_id"`
	ArticleName   string          `json:"article_name"`
	ArticleActive bool            `json:"article_active"`
	SuggestedQty  decimal.Decimal `json:"suggested_qty"`
	Position      int             `json:"position"`
}
