package invoice

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/pricing"
)

type LineView struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"product_name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// View is the display form of a completed order. Every amount is already
// rendered with two decimals.
type View struct {
	CheckoutID    string     `json:"checkout_id"`
	OrderID       int64      `json:"order_id,omitempty"`
	OrderDate     string     `json:"order_date"`
	Customer      string     `json:"customer"`
	PaymentMethod string     `json:"payment_method"`
	OrderStatus   string     `json:"order_status"`
	Lines         []LineView `json:"lines"`
	SubTotal      string     `json:"sub_total"`
	Discount      string     `json:"discount"`
	DiscountRate  string     `json:"discount_rate"`
	Tax           string     `json:"tax"`
	TaxRate       string     `json:"tax_rate"`
	Total         string     `json:"total"`
	TotalItems    int        `json:"total_items"`
}

func NewView(s domain.OrderSnapshot) View {
	v := View{
		CheckoutID:    s.CheckoutID,
		OrderID:       s.CreatedOrderID,
		OrderDate:     s.Request.OrderDate.String(),
		Customer:      s.CustomerName,
		PaymentMethod: s.PaymentMethodName,
		OrderStatus:   s.OrderStatusLabel,
		Lines:         make([]LineView, 0, len(s.Lines)),
		SubTotal:      pricing.Money(s.SubTotal),
		Discount:      pricing.Money(s.DiscountAmount),
		DiscountRate:  s.DiscountPercent.String() + "%",
		Tax:           pricing.Money(s.TaxAmount),
		TaxRate:       s.TaxPercent.String() + "%",
		Total:         pricing.Money(s.Total),
		TotalItems:    s.TotalItems,
	}
	for _, l := range s.Lines {
		v.Lines = append(v.Lines, LineView{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: pricing.Money(l.UnitPrice),
			LineTotal: pricing.Money(l.LineTotal()),
		})
	}
	return v
}

// Render writes the print layout of the invoice.
func (v View) Render(w io.Writer) error {
	fmt.Fprintln(w, "INVOICE")
	if v.OrderID != 0 {
		fmt.Fprintf(w, "Order #%d\n", v.OrderID)
	}
	fmt.Fprintf(w, "Date: %s\n", v.OrderDate)
	fmt.Fprintf(w, "Customer: %s\n", v.Customer)
	fmt.Fprintf(w, "Payment: %s\n", v.PaymentMethod)
	fmt.Fprintf(w, "Status: %s\n\n", v.OrderStatus)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Item\tQty\tPrice\tAmount")
	for _, l := range v.Lines {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", l.Name, l.Quantity, l.UnitPrice, l.LineTotal)
	}
	fmt.Fprintln(tw, "\t\t\t")
	fmt.Fprintf(tw, "Sub Total\t\t\t%s\n", v.SubTotal)
	fmt.Fprintf(tw, "Discount (%s)\t\t\t-%s\n", v.DiscountRate, v.Discount)
	fmt.Fprintf(tw, "Tax (%s)\t\t\t%s\n", v.TaxRate, v.Tax)
	fmt.Fprintf(tw, "Total\t\t\t%s\n", v.Total)
	fmt.Fprintf(tw, "Items\t\t\t%d\n", v.TotalItems)
	return tw.Flush()
}
