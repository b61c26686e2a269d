package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSnapshot is the frozen record of a completed checkout shown on the
// invoice. It shares no slices with live cart state.
type OrderSnapshot struct {
	CheckoutID string       `json:"checkout_id"`
	Request    OrderRequest `json:"request"`
	Lines      []CartLine   `json:"lines"`

	SubTotal          decimal.Decimal `json:"sub_total"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	TaxPercent        decimal.Decimal `json:"tax_percent"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	Total             decimal.Decimal `json:"total"`
	TotalItems        int             `json:"total_items"`
	CustomerName      string          `json:"customer_name"`
	PaymentMethodName string          `json:"payment_method_name"`
	OrderStatusLabel  string          `json:"order_status_label"`
	CreatedOrderID    int64           `json:"created_order_id,omitempty"`
	SubmittedAt       time.Time       `json:"submitted_at"`
}
