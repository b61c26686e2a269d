// Package refdata loads the lookup lists every screen needs and collapses
// concurrent loads from different sessions into one API call per list.
package refdata

import (
	"context"

	"github.com/fjod/go_pos/internal/apiclient"
	"github.com/fjod/go_pos/internal/domain"
	"golang.org/x/sync/singleflight"
)

type Source interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
	ListOrderStatuses(ctx context.Context) ([]domain.OrderStatus, error)
}

type Loader struct {
	src   Source
	group singleflight.Group
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

func (l *Loader) Products(ctx context.Context) ([]domain.Product, error) {
	return load(ctx, &l.group, "products", l.src.ListProducts)
}

func (l *Loader) Categories(ctx context.Context) ([]domain.Category, error) {
	return load(ctx, &l.group, "categories", l.src.ListCategories)
}

func (l *Loader) Customers(ctx context.Context) ([]domain.Customer, error) {
	return load(ctx, &l.group, "customers", l.src.ListCustomers)
}

func (l *Loader) PaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return load(ctx, &l.group, "payment_methods", l.src.ListPaymentMethods)
}

func (l *Loader) OrderStatuses(ctx context.Context) ([]domain.OrderStatus, error) {
	return load(ctx, &l.group, "order_statuses", l.src.ListOrderStatuses)
}

// load shares one in-flight call per key. The shared call is detached from
// the caller's cancellation so one session leaving does not fail the
// others; each caller still stops waiting when its own context ends.
// Every caller gets its own copy of the slice.
func load[T any](ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) ([]T, error)) ([]T, error) {
	shared := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		return fn(shared)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		items, _ := res.Val.([]T)
		out := make([]T, len(items))
		copy(out, items)
		return out, nil
	}
}

// APISource adapts the API client to Source.
type APISource struct {
	Client *apiclient.Client
}

func (s APISource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Client.Products.List(ctx)
}

func (s APISource) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Client.Categories.List(ctx)
}

func (s APISource) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.Client.Customers.List(ctx)
}

func (s APISource) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return s.Client.PaymentMethods.List(ctx)
}

func (s APISource) ListOrderStatuses(ctx context.Context) ([]domain.OrderStatus, error) {
	return s.Client.ListOrderStatuses(ctx)
}
