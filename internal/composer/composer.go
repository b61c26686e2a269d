package composer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/pricing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownReference = errors.New("selected reference is not in the loaded list")

type ReferenceSource interface {
	Customers(ctx context.Context) ([]domain.Customer, error)
	PaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
	OrderStatuses(ctx context.Context) ([]domain.OrderStatus, error)
}

type Notifier interface {
	Notify(source, message string)
}

// Selection is what the operator has picked for the pending order. Zero
// ids mean nothing is selected.
type Selection struct {
	CustomerID      int64           `json:"customer_id"`
	PaymentMethodID int64           `json:"payment_method_id"`
	OrderStatusID   int64           `json:"order_status_id"`
	Discount        decimal.Decimal `json:"discount"`
	Tax             decimal.Decimal `json:"tax"`
}

type State struct {
	Loading        bool                   `json:"loading"`
	Customers      []domain.Customer      `json:"customers"`
	PaymentMethods []domain.PaymentMethod `json:"payment_methods"`
	OrderStatuses  []domain.OrderStatus   `json:"order_statuses"`
	Selection      Selection              `json:"selection"`
}

// Names are the display values of a selection, frozen into the invoice.
type Names struct {
	Customer      string
	PaymentMethod string
	OrderStatus   string
}

type Composer struct {
	src    ReferenceSource
	notify Notifier
	log    zerolog.Logger

	mu        sync.RWMutex
	loading   bool
	customers []domain.Customer
	methods   []domain.PaymentMethod
	statuses  []domain.OrderStatus
	sel       Selection
}

func New(src ReferenceSource, notify Notifier, log zerolog.Logger) *Composer {
	return &Composer{src: src, notify: notify, log: log, loading: true}
}

// Load fetches the three reference lists in parallel. Each failure is
// logged and notified on its own; the lists that did load are kept and
// loading always completes. The joined error is returned for callers that
// care.
func (c *Composer) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	var (
		g         errgroup.Group
		customers []domain.Customer
		methods   []domain.PaymentMethod
		statuses  []domain.OrderStatus
		errs      = make([]error, 3)
	)
	g.Go(func() error {
		customers, errs[0] = c.src.Customers(ctx)
		c.reportFailure(ctx, errs[0], "customers", "Failed to fetch customer.")
		return nil
	})
	g.Go(func() error {
		methods, errs[1] = c.src.PaymentMethods(ctx)
		c.reportFailure(ctx, errs[1], "payment methods", "Failed to fetch payment.")
		return nil
	})
	g.Go(func() error {
		statuses, errs[2] = c.src.OrderStatuses(ctx)
		c.reportFailure(ctx, errs[2], "order statuses", "Failed to fetch order status.")
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if errs[0] == nil {
		c.customers = customers
	}
	if errs[1] == nil {
		c.methods = methods
	}
	if errs[2] == nil {
		c.statuses = statuses
	}
	return errors.Join(errs...)
}

func (c *Composer) reportFailure(ctx context.Context, err error, list, message string) {
	if err == nil {
		return
	}
	c.log.Error().Ctx(ctx).Err(err).Str("list", list).Msg("failed to fetch reference data")
	c.notify.Notify("composer", message)
}

// Select replaces the whole selection. Non-zero ids must name a loaded
// record and percentages must pass pricing validation; on error nothing
// changes.
func (c *Composer) Select(sel Selection) error {
	if err := pricing.ValidatePercentages(sel.Discount, sel.Tax); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if sel.CustomerID != 0 && !contains(c.customers, sel.CustomerID, func(x domain.Customer) int64 { return x.ID }) {
		return fmt.Errorf("customer %d: %w", sel.CustomerID, ErrUnknownReference)
	}
	if sel.PaymentMethodID != 0 && !contains(c.methods, sel.PaymentMethodID, func(x domain.PaymentMethod) int64 { return x.ID }) {
		return fmt.Errorf("payment method %d: %w", sel.PaymentMethodID, ErrUnknownReference)
	}
	if sel.OrderStatusID != 0 && !contains(c.statuses, sel.OrderStatusID, func(x domain.OrderStatus) int64 { return x.ID }) {
		return fmt.Errorf("order status %d: %w", sel.OrderStatusID, ErrUnknownReference)
	}
	c.sel = sel
	return nil
}

func (c *Composer) Selection() Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sel
}

func (c *Composer) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Loading:        c.loading,
		Customers:      append([]domain.Customer(nil), c.customers...),
		PaymentMethods: append([]domain.PaymentMethod(nil), c.methods...),
		OrderStatuses:  append([]domain.OrderStatus(nil), c.statuses...),
		Selection:      c.sel,
	}
}

// Quote prices subTotal with the selected discount and tax.
func (c *Composer) Quote(subTotal decimal.Decimal) (pricing.Breakdown, error) {
	sel := c.Selection()
	return pricing.Quote(subTotal, sel.Discount, sel.Tax)
}

func (c *Composer) Names(sel Selection) Names {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n Names
	for _, x := range c.customers {
		if x.ID == sel.CustomerID {
			n.Customer = x.Name
		}
	}
	for _, x := range c.methods {
		if x.ID == sel.PaymentMethodID {
			n.PaymentMethod = x.Name
		}
	}
	for _, x := range c.statuses {
		if x.ID == sel.OrderStatusID {
			n.OrderStatus = x.Label
		}
	}
	return n
}

// ResetSelection clears the picked references and percentages after a
// completed checkout.
func (c *Composer) ResetSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = Selection{}
}

func contains[T any](items []T, id int64, key func(T) int64) bool {
	for _, item := range items {
		if key(item) == id {
			return true
		}
	}
	return false
}
