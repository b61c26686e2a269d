package domain

import "github.com/shopspring/decimal"

// CartLine is one product's accumulated quantity. UnitPrice is captured
// when the product is first added.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"product_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
