package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/domain"
	"ledgerbook/internal/repos"
)

// SalesCategory names the income category payments are booked under. It is
// created on first payment when no active match exists.
type SalesCategory struct {
	Name  string
	Color string
}

var DefaultSalesCategory = SalesCategory{Name: "Vendas", Color: "#4F46E5"}

// OrderService is the order state machine. It is the only writer of
// Product.StockCount and of order-linked transactions; each operation runs
// in one storage transaction and re-reads everything it touches.
type OrderService struct {
	Stores *repos.Stores
	Clock  clock.Clock
	Log    *zap.Logger
	Sales  SalesCategory
}

func NewOrderService(stores *repos.Stores, clk clock.Clock, log *zap.Logger, sales SalesCategory) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	if sales.Name == "" {
		sales = DefaultSalesCategory
	}
	return &OrderService{Stores: stores, Clock: clk, Log: log, Sales: sales}
}

// Create reserves quantity units of the product and records a Pending order
// priced at the current selling price.
func (s *OrderService) Create(ctx context.Context, customerID, productID int64, quantity int) (*domain.Order, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity %d: %w", quantity, domain.ErrInvalidInput)
	}

	var order *domain.Order
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		product, err := tx.Products.Get(ctx, productID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("product %d: %w", productID, domain.ErrProductNotFound)
		}
		if err != nil {
			return err
		}
		if product.StockCount < quantity {
			return fmt.Errorf("product %d has %d, need %d: %w",
				productID, product.StockCount, quantity, domain.ErrInsufficientStock)
		}

		total := product.SellingPrice.Mul(decimal.NewFromInt(int64(quantity)))
		if !total.IsPositive() {
			return fmt.Errorf("product %d has no selling price: %w", productID, domain.ErrInvalidInput)
		}

		o := domain.Order{
			CustomerID:  customerID,
			ProductID:   productID,
			Quantity:    quantity,
			TotalAmount: total,
			Status:      domain.OrderPending,
			Date:        domain.MillisOf(s.Clock.Now()),
		}
		id, err := tx.Orders.Create(ctx, o)
		if err != nil {
			return err
		}
		if _, err := tx.Products.Update(ctx, productID, func(p *domain.Product) error {
			if p.StockCount < quantity {
				return domain.ErrInsufficientStock
			}
			p.StockCount -= quantity
			return nil
		}); err != nil {
			return err
		}
		order, err = tx.Orders.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("order.create",
		zap.Int64("order_id", order.ID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	return order, nil
}

type PaymentResult struct {
	Order         *domain.Order `json:"order"`
	TransactionID int64         `json:"transactionId,omitempty"`
	AlreadyPaid   bool          `json:"alreadyPaid"`
}

// MarkAsPaid moves a Pending order to Paid and books exactly one income
// transaction for it. Paying an already Paid order is a no-op success so
// callers can retry blindly; paying a Cancelled order is ErrInvalidState.
func (s *OrderService) MarkAsPaid(ctx context.Context, orderID int64) (*PaymentResult, error) {
	var res PaymentResult
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		order, err := s.loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case domain.OrderPaid:
			res = PaymentResult{Order: order, AlreadyPaid: true}
			return nil
		case domain.OrderCancelled:
			return fmt.Errorf("pay order %d: order is cancelled: %w", orderID, domain.ErrInvalidState)
		}
		if !order.Active() {
			return fmt.Errorf("order %d: %w", orderID, domain.ErrOrderNotFound)
		}

		categoryID, err := s.salesCategory(ctx, tx)
		if err != nil {
			return err
		}
		paid, err := tx.Orders.Update(ctx, orderID, func(o *domain.Order) error {
			o.Status = domain.OrderPaid
			return nil
		})
		if err != nil {
			return err
		}
		txID, err := tx.Transactions.Create(ctx, domain.Transaction{
			CategoryID:  categoryID,
			Amount:      order.TotalAmount,
			Description: fmt.Sprintf("Order #%d payment - %s", orderID, order.TotalAmount.StringFixed(2)),
			Date:        domain.MillisOf(s.Clock.Now()),
			Type:        domain.Income,
			OrderID:     &orderID,
		})
		if err != nil {
			return err
		}
		res = PaymentResult{Order: paid, TransactionID: txID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyPaid {
		s.Log.Debug("order.pay.noop", zap.Int64("order_id", orderID))
	} else {
		s.Log.Info("order.pay",
			zap.Int64("order_id", orderID),
			zap.Int64("transaction_id", res.TransactionID),
			zap.String("amount", res.Order.TotalAmount.StringFixed(2)))
	}
	return &res, nil
}

// salesCategory returns the first active income category carrying the
// configured sales name, creating it if there is none.
func (s *OrderService) salesCategory(ctx context.Context, tx *repos.Stores) (int64, error) {
	c, err := tx.Categories.FindActive(ctx, func(c *domain.Category) bool {
		return c.Type == domain.Income && strings.EqualFold(c.Name, s.Sales.Name)
	})
	if err == nil {
		return c.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}
	id, err := tx.Categories.Create(ctx, domain.Category{Name: s.Sales.Name, Type: domain.Income, Color: s.Sales.Color})
	if err != nil {
		return 0, err
	}
	s.Log.Info("category.sales.create", zap.Int64("category_id", id), zap.String("name", s.Sales.Name))
	return id, nil
}

type CancelResult struct {
	Order            *domain.Order `json:"order"`
	StockRestored    bool          `json:"stockRestored"`
	AlreadyCancelled bool          `json:"alreadyCancelled"`
}

// Cancel moves the order to Cancelled, tombstones it and returns the
// reserved stock exactly once. A vanished product is logged as a
// reconciliation gap rather than failing the cancellation.
func (s *OrderService) Cancel(ctx context.Context, orderID int64) (*CancelResult, error) {
	var res CancelResult
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		order, err := s.loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status == domain.OrderCancelled && !order.Active() {
			res = CancelResult{Order: order, AlreadyCancelled: true}
			return nil
		}

		if order.Status != domain.OrderCancelled {
			_, err := tx.Products.Update(ctx, order.ProductID, func(p *domain.Product) error {
				if !p.Active() {
					return domain.ErrProductNotFound
				}
				p.StockCount += order.Quantity
				return nil
			})
			switch {
			case err == nil:
				res.StockRestored = true
			case errors.Is(err, domain.ErrNotFound):
				s.Log.Warn("order.cancel.reconcile_gap",
					zap.Int64("order_id", orderID),
					zap.Int64("product_id", order.ProductID),
					zap.Int("quantity", order.Quantity))
			default:
				return err
			}
			if order.Status == domain.OrderPaid {
				s.Log.Warn("order.cancel.paid", zap.Int64("order_id", orderID),
					zap.String("amount", order.TotalAmount.StringFixed(2)))
			}
		}

		if _, err := tx.Orders.Update(ctx, orderID, func(o *domain.Order) error {
			o.Status = domain.OrderCancelled
			return nil
		}); err != nil {
			return err
		}
		if err := tx.Orders.SoftDelete(ctx, orderID); err != nil {
			return err
		}
		res.Order, err = tx.Orders.Lookup(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyCancelled {
		s.Log.Debug("order.cancel.noop", zap.Int64("order_id", orderID))
	} else {
		s.Log.Info("order.cancel", zap.Int64("order_id", orderID), zap.Bool("stock_restored", res.StockRestored))
	}
	return &res, nil
}

// Restock adds units to a product's stock outside of any order.
func (s *OrderService) Restock(ctx context.Context, productID int64, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity %d: %w", quantity, domain.ErrInvalidInput)
	}
	var product *domain.Product
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		if _, err := tx.Products.Get(ctx, productID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("product %d: %w", productID, domain.ErrProductNotFound)
			}
			return err
		}
		var err error
		product, err = tx.Products.Update(ctx, productID, func(p *domain.Product) error {
			p.StockCount += quantity
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("product.restock", zap.Int64("product_id", productID), zap.Int("quantity", quantity),
		zap.Int("stock", product.StockCount))
	return product, nil
}

// loadOrder reads an order whether or not it is tombstoned.
func (s *OrderService) loadOrder(ctx context.Context, tx *repos.Stores, orderID int64) (*domain.Order, error) {
	order, err := tx.Orders.Lookup(ctx, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("order %d: %w", orderID, domain.ErrOrderNotFound)
	}
	return order, err
}

// OrderView is an active order with the names of what it references.
type OrderView struct {
	domain.Order
	CustomerName string `json:"customerName"`
	ProductName  string `json:"productName"`
}

const (
	RemovedCustomer = "Cliente Removido"
	RemovedProduct  = "Produto Removido"
)

type OrderFilter struct {
	Status domain.OrderStatus // empty means all
	SortBy string             // "date" (default) | "totalAmount"
	Asc    bool
}

// List returns active orders joined with customer and product names.
func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]OrderView, error) {
	var (
		orders    []domain.Order
		customers []domain.Customer
		products  []domain.Product
	)
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		var err error
		if orders, err = tx.Orders.ListActive(ctx); err != nil {
			return err
		}
		if customers, err = tx.Customers.ListActive(ctx); err != nil {
			return err
		}
		products, err = tx.Products.ListActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	custNames := make(map[int64]string, len(customers))
	for _, c := range customers {
		custNames[c.ID] = c.Name
	}
	prodNames := make(map[int64]string, len(products))
	for _, p := range products {
		prodNames[p.ID] = p.Name
	}

	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		v := OrderView{Order: o, CustomerName: RemovedCustomer, ProductName: RemovedProduct}
		if n, ok := custNames[o.CustomerID]; ok {
			v.CustomerName = n
		}
		if n, ok := prodNames[o.ProductID]; ok {
			v.ProductName = n
		}
		out = append(out, v)
	}

	slices.SortStableFunc(out, func(a, b OrderView) int {
		c := cmp.Compare(a.Date, b.Date)
		if f.SortBy == "totalAmount" {
			c = a.TotalAmount.Cmp(b.TotalAmount)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if !f.Asc {
			c = -c
		}
		return c
	})
	return out, nil
}
