package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_pos/internal/apiclient"
	"github.com/fjod/go_pos/internal/composer"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/pricing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Cart interface {
	Lines() []domain.CartLine
	Subtract(lines []domain.CartLine)
}

type Composer interface {
	Selection() composer.Selection
	Names(sel composer.Selection) composer.Names
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
}

type Publisher interface {
	Publish(ctx context.Context, snapshot domain.OrderSnapshot) error
}

// State is a consistent read of the workflow. Snapshot is set only in
// StatusSuccess and Reason only in StatusFailed.
type State struct {
	Status     Status                `json:"status"`
	CheckoutID string                `json:"checkout_id,omitempty"`
	Reason     string                `json:"reason,omitempty"`
	Snapshot   *domain.OrderSnapshot `json:"snapshot,omitempty"`
}

type Option func(*Workflow)

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(w *Workflow) { w.publisher = p }
}

func WithLogger(log zerolog.Logger) Option {
	return func(w *Workflow) { w.log = log }
}

// Workflow drives one POS screen through
// IDLE -> VALIDATING -> SUBMITTING -> SUCCESS | FAILED.
// The lock guards transitions only and is never held across the API call.
type Workflow struct {
	cart      Cart
	composer  Composer
	orders    OrderCreator
	publisher Publisher
	now       func() time.Time
	log       zerolog.Logger
	tracer    trace.Tracer

	mu    sync.Mutex
	state State
}

func NewWorkflow(cart Cart, comp Composer, orders OrderCreator, opts ...Option) *Workflow {
	w := &Workflow{
		cart:     cart,
		composer: comp,
		orders:   orders,
		now:      time.Now,
		log:      zerolog.Nop(),
		tracer:   otel.Tracer("github.com/fjod/go_pos/internal/checkout"),
		state:    State{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Checkout submits the current cart. Local validation failures and API
// failures both leave the workflow FAILED with the cart untouched and are
// returned. A second call while an attempt is in flight returns
// ErrCheckoutInProgress without submitting.
func (w *Workflow) Checkout(ctx context.Context) (*domain.OrderSnapshot, error) {
	checkoutID, err := w.begin()
	if err != nil {
		return nil, err
	}

	ctx, span := w.tracer.Start(ctx, "checkout.submit", trace.WithAttributes(attribute.String("checkout.id", checkoutID)))
	defer span.End()
	log := w.log.With().Str("checkout_id", checkoutID).Logger()

	lines := w.cart.Lines()
	sel := w.composer.Selection()
	req, quote, err := w.buildRequest(lines, sel)
	if err != nil {
		log.Info().Ctx(ctx).Err(err).Msg("checkout rejected by validation")
		w.fail(err.Error())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	w.transition(StatusSubmitting)
	log.Info().Ctx(ctx).Int("lines", len(lines)).Str("total", pricing.Money(req.Total)).Msg("submitting order")

	order, err := w.orders.CreateOrder(ctx, req)
	if err != nil {
		reason := err.Error()
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			reason = apiErr.OperatorMessage()
		}
		log.Error().Ctx(ctx).Err(err).Msg("order submission failed")
		w.fail(reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, "order submission failed")
		return nil, fmt.Errorf("submit order: %w", err)
	}

	names := w.composer.Names(sel)
	snapshot := domain.OrderSnapshot{
		CheckoutID:        checkoutID,
		Request:           req,
		Lines:             lines,
		SubTotal:          pricing.Round(quote.SubTotal),
		DiscountPercent:   quote.DiscountPercent,
		DiscountAmount:    pricing.Round(quote.DiscountAmount),
		TaxPercent:        quote.TaxPercent,
		TaxAmount:         pricing.Round(quote.TaxAmount),
		Total:             req.Total,
		TotalItems:        totalItems(lines),
		CustomerName:      names.Customer,
		PaymentMethodName: names.PaymentMethod,
		OrderStatusLabel:  names.OrderStatus,
		SubmittedAt:       w.now(),
	}
	if order != nil {
		snapshot.CreatedOrderID = order.ID
	}

	// only what was ordered leaves the cart
	w.cart.Subtract(lines)

	w.mu.Lock()
	w.state = State{Status: StatusSuccess, CheckoutID: checkoutID, Snapshot: &snapshot}
	w.mu.Unlock()

	log.Info().Ctx(ctx).Int64("order_id", snapshot.CreatedOrderID).Msg("checkout completed")
	w.publish(ctx, log, snapshot)

	out := snapshot
	return &out, nil
}

// Reset returns a finished workflow to IDLE so the next order can start.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Status.InFlight() {
		return ErrCheckoutInProgress
	}
	w.state = State{Status: StatusIdle}
	return nil
}

func (w *Workflow) begin() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.state.Status.InFlight():
		return "", ErrCheckoutInProgress
	case w.state.Status == StatusSuccess:
		return "", ErrCheckoutCompleted
	}
	id := uuid.NewString()
	w.state = State{Status: StatusValidating, CheckoutID: id}
	return id, nil
}

func (w *Workflow) transition(to Status) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Status = to
}

func (w *Workflow) fail(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = State{Status: StatusFailed, CheckoutID: w.state.CheckoutID, Reason: reason}
}

func (w *Workflow) buildRequest(lines []domain.CartLine, sel composer.Selection) (domain.OrderRequest, pricing.Breakdown, error) {
	switch {
	case len(lines) == 0:
		return domain.OrderRequest{}, pricing.Breakdown{}, ErrEmptyCart
	case sel.CustomerID == 0:
		return domain.OrderRequest{}, pricing.Breakdown{}, ErrMissingCustomer
	case sel.PaymentMethodID == 0:
		return domain.OrderRequest{}, pricing.Breakdown{}, ErrMissingPaymentMethod
	case sel.OrderStatusID == 0:
		return domain.OrderRequest{}, pricing.Breakdown{}, ErrMissingOrderStatus
	}

	subTotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		subTotal = subTotal.Add(l.LineTotal())
		items = append(items, domain.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.UnitPrice})
	}

	quote, err := pricing.Quote(subTotal, sel.Discount, sel.Tax)
	if err != nil {
		return domain.OrderRequest{}, pricing.Breakdown{}, fmt.Errorf("%w: %w", ErrInvalidPercentage, err)
	}

	return domain.OrderRequest{
		CustomerID:      sel.CustomerID,
		PaymentMethodID: sel.PaymentMethodID,
		OrderStatusID:   sel.OrderStatusID,
		OrderDate:       domain.NewDate(w.now()),
		Total:           pricing.Round(quote.Total),
		Items:           items,
	}, quote, nil
}

// publish is best effort; the order already exists remotely.
func (w *Workflow) publish(ctx context.Context, log zerolog.Logger, snapshot domain.OrderSnapshot) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(ctx, snapshot); err != nil {
		log.Warn().Ctx(ctx).Err(err).Msg("failed to publish invoice event")
	}
}

func totalItems(lines []domain.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
