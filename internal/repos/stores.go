package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/domain"
)

type (
	ProductStore     = Store[domain.Product, *domain.Product]
	CustomerStore    = Store[domain.Customer, *domain.Customer]
	CategoryStore    = Store[domain.Category, *domain.Category]
	OrderStore       = Store[domain.Order, *domain.Order]
	TransactionStore = Store[domain.Transaction, *domain.Transaction]
)

var (
	ProductTable     = Table{Kind: "product", Name: "products", Columns: []string{"name", "description", "base_cost", "selling_price", "stock_count"}}
	CustomerTable    = Table{Kind: "customer", Name: "customers", Columns: []string{"name", "email", "phone"}}
	CategoryTable    = Table{Kind: "category", Name: "categories", Columns: []string{"name", "type", "color"}}
	OrderTable       = Table{Kind: "order", Name: "orders", Columns: []string{"customer_id", "product_id", "quantity", "total_amount", "status", "date"}}
	TransactionTable = Table{Kind: "transaction", Name: "transactions", Columns: []string{"category_id", "amount", "description", "date", "type", "order_id"}}
)

// Stores bundles the five entity stores over one database handle.
type Stores struct {
	Products     *ProductStore
	Customers    *CustomerStore
	Categories   *CategoryStore
	Orders       *OrderStore
	Transactions *TransactionStore
	SyncState    *SyncStateRepo

	root *sqlx.DB // nil when bound to a transaction
}

func NewStores(db *sqlx.DB, clk clock.Clock) *Stores {
	s := bind(db, clk)
	s.root = db
	return s
}

func bind(db DBTX, clk clock.Clock) *Stores {
	return &Stores{
		Products:     NewStore[domain.Product](db, clk, ProductTable),
		Customers:    NewStore[domain.Customer](db, clk, CustomerTable),
		Categories:   NewStore[domain.Category](db, clk, CategoryTable),
		Orders:       NewStore[domain.Order](db, clk, OrderTable),
		Transactions: NewStore[domain.Transaction](db, clk, TransactionTable),
		SyncState:    NewSyncStateRepo(db),
	}
}

// WithTx rebinds every store to tx.
func (s *Stores) WithTx(tx DBTX) *Stores {
	return &Stores{
		Products:     s.Products.WithTx(tx),
		Customers:    s.Customers.WithTx(tx),
		Categories:   s.Categories.WithTx(tx),
		Orders:       s.Orders.WithTx(tx),
		Transactions: s.Transactions.WithTx(tx),
		SyncState:    s.SyncState.WithTx(tx),
	}
}

// Atomic runs fn against stores bound to a single transaction. Stores that
// are already transaction-bound run fn inside the enclosing transaction.
func (s *Stores) Atomic(ctx context.Context, fn func(tx *Stores) error) error {
	if s.root == nil {
		return fn(s)
	}
	return InTx(ctx, s.root, func(tx *sqlx.Tx) error {
		return fn(s.WithTx(tx))
	})
}
