package domain

import "github.com/shopspring/decimal"

// Direction tags money flowing in or out.
type Direction string

const (
	Income  Direction = "INCOME"
	Expense Direction = "EXPENSE"
)

func (d Direction) Valid() bool { return d == Income || d == Expense }

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	return s == OrderPending || s == OrderPaid || s == OrderCancelled
}

type Product struct {
	Record
	Name         string          `db:"name" json:"name"`
	Description  string          `db:"description" json:"description,omitempty"`
	BaseCost     decimal.Decimal `db:"base_cost" json:"baseCost"`
	SellingPrice decimal.Decimal `db:"selling_price" json:"sellingPrice"`
	StockCount   int             `db:"stock_count" json:"stockCount"` // never negative
}

type Customer struct {
	Record
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email,omitempty"`
	Phone string `db:"phone" json:"phone,omitempty"`
}

// Category groups transactions. Tombstoned categories stay referenceable by id.
type Category struct {
	Record
	Name  string    `db:"name" json:"name"`
	Type  Direction `db:"type" json:"type"`
	Color string    `db:"color" json:"color,omitempty"`
}

// Order references its customer and product by id only. TotalAmount is frozen
// at creation time.
type Order struct {
	Record
	CustomerID  int64           `db:"customer_id" json:"customerId"`
	ProductID   int64           `db:"product_id" json:"productId"`
	Quantity    int             `db:"quantity" json:"quantity"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"totalAmount"`
	Status      OrderStatus     `db:"status" json:"status"`
	Date        Millis          `db:"date" json:"date"`
}

type Transaction struct {
	Record
	CategoryID  int64           `db:"category_id" json:"categoryId"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	Date        Millis          `db:"date" json:"date"`
	Type        Direction       `db:"type" json:"type"`
	OrderID     *int64          `db:"order_id" json:"orderId,omitempty"`
}
