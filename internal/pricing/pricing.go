package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativePercentage = errors.New("percentage must not be negative")
	ErrDiscountOverLimit  = errors.New("discount must not exceed 100 percent")
)

var hundred = decimal.NewFromInt(100)

// Breakdown holds unrounded amounts; callers round with Money when
// displaying or submitting.
type Breakdown struct {
	SubTotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	Discounted      decimal.Decimal
	TaxPercent      decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
}

// Quote applies the discount to the subtotal first and compounds tax on
// the discounted amount:
//
//	total = (subtotal - subtotal*discount/100) * (1 + tax/100)
func Quote(subTotal, discountPercent, taxPercent decimal.Decimal) (Breakdown, error) {
	if err := ValidatePercentages(discountPercent, taxPercent); err != nil {
		return Breakdown{}, err
	}

	discountAmount := subTotal.Mul(discountPercent).Div(hundred)
	discounted := subTotal.Sub(discountAmount)
	total := discounted.Mul(decimal.NewFromInt(1).Add(taxPercent.Div(hundred)))

	return Breakdown{
		SubTotal:        subTotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discountAmount,
		Discounted:      discounted,
		TaxPercent:      taxPercent,
		TaxAmount:       total.Sub(discounted),
		Total:           total,
	}, nil
}

func ValidatePercentages(discountPercent, taxPercent decimal.Decimal) error {
	if discountPercent.IsNegative() || taxPercent.IsNegative() {
		return ErrNegativePercentage
	}
	if discountPercent.GreaterThan(hundred) {
		return ErrDiscountOverLimit
	}
	return nil
}

// Round gives the two-decimal amount that is displayed and submitted.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Money renders an amount with exactly two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
