package checkout

import "errors"

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrMissingCustomer      = errors.New("please select a customer")
	ErrMissingPaymentMethod = errors.New("please select a payment method")
	ErrMissingOrderStatus   = errors.New("please select an order status")
	ErrInvalidPercentage    = errors.New("invalid discount or tax percentage")
	ErrCheckoutInProgress   = errors.New("checkout already in progress")
	ErrCheckoutCompleted    = errors.New("checkout already completed, reset before starting a new one")
)

// IsValidation reports whether err was raised before any network call.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrMissingCustomer) ||
		errors.Is(err, ErrMissingPaymentMethod) ||
		errors.Is(err, ErrMissingOrderStatus) ||
		errors.Is(err, ErrInvalidPercentage)
}
