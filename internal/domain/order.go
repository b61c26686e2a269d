package domain

import "github.com/shopspring/decimal"

// Order is a row of the orders screen. The name columns are joined in by
// the API and are never sent back.
type Order struct {
	ID              int64           `json:"orders_id"`
	CustomerID      int64           `json:"customers_id,omitempty"`
	PaymentMethodID int64           `json:"payment_methods_id,omitempty"`
	OrderStatusID   int64           `json:"orders_status_id"`
	OrderDate       Date            `json:"order_date"`
	Total           decimal.Decimal `json:"total"`

	ProductName  string          `json:"product_name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	CustomerName string          `json:"name,omitempty"`
	MethodName   string          `json:"method_name,omitempty"`
}

func (o Order) Key() int64 { return o.ID }

func (o Order) WithKey(id int64) Order {
	o.ID = id
	return o
}

func (o Order) Label() string {
	if o.CustomerName != "" {
		return o.CustomerName
	}
	return o.ProductName
}

func (o Order) Validate() error {
	var v ValidationError
	if o.OrderStatusID <= 0 {
		v.Add("orders_status_id", "Please select an order status!")
	}
	if o.OrderDate.IsZero() {
		v.Add("order_date", "Please input the order date!")
	}
	if o.Total.IsNegative() {
		v.Add("total", "Total must not be negative!")
	}
	return v.Err()
}

type OrderItem struct {
	ProductID int64           `json:"products_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderRequest is the order-creation body built at checkout.
type OrderRequest struct {
	CustomerID      int64           `json:"customers_id"`
	PaymentMethodID int64           `json:"payment_methods_id"`
	OrderStatusID   int64           `json:"orders_status_id"`
	OrderDate       Date            `json:"order_date"`
	Total           decimal.Decimal `json:"total"`
	Items           []OrderItem     `json:"items"`
}
